package models

// Daily payment totals are produced fresh by each source adapter on every
// audit run. Dates stay ISO strings ("2006-01-02") until persistence; the
// audit engine combines sources by string equality only.

// DailyTotal is one calendar day's total from a single payment source.
type DailyTotal struct {
	Date   string
	Amount int64
}

// CashDayTotal is the aggregate POS source's daily cash breakdown.
// ExpectedCash is sales minus refunds for the day.
type CashDayTotal struct {
	Date         string
	SalesTotal   int64
	RefundTotal  int64
	RefundCount  int
	ExpectedCash int64
}

// ShiftCashTotal is one (employee, device) cash shift from the multi-till
// POS source.
type ShiftCashTotal struct {
	Date        string
	EmployeeID  string
	POSDeviceID string
	ShiftID     string
	Amount      int64
}
