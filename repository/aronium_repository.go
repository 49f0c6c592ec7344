package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"parkops/models"
)

// Aronium payment type ids in the local ledger.
const (
	aroniumPaymentTypeCash = 1
	aroniumPaymentTypeCard = 2
)

// ledgerEpoch bounds unqualified queries; the in-store POS was installed
// for the 2024 season and earlier rows are test data.
const ledgerEpoch = "2024-09-01"

// AroniumRepository reads the in-store POS's local SQLite payment ledger.
// It implements the service.SecondaryPOSAdapter interface. Read-only: this
// core never writes to the ledger.
type AroniumRepository struct {
	db *sql.DB
}

// NewAroniumRepository opens the ledger file
func NewAroniumRepository(dbPath string) (*AroniumRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open aronium ledger: %w", err)
	}
	return &AroniumRepository{db: db}, nil
}

// Close closes the ledger connection
func (r *AroniumRepository) Close() error {
	return r.db.Close()
}

// DailyCardPayments returns one card total per ledger day
func (r *AroniumRepository) DailyCardPayments(ctx context.Context, startDate, endDate string) ([]*models.DailyTotal, error) {
	startDate, endDate = boundLedgerWindow(startDate, endDate)

	query := `
		SELECT
			DATE(P.Date) AS Day,
			SUM(P.Amount) AS Total
		FROM Payment P
		WHERE
			P.PaymentTypeId = ? AND
			DATE(P.Date) BETWEEN ? AND ?
		GROUP BY DATE(P.Date)
		ORDER BY Day
	`

	rows, err := r.db.QueryContext(ctx, query, aroniumPaymentTypeCard, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query card payments: %w", err)
	}
	defer rows.Close()

	var totals []*models.DailyTotal
	for rows.Next() {
		var date string
		var amount float64
		if err := rows.Scan(&date, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan card payment row: %w", err)
		}
		totals = append(totals, &models.DailyTotal{
			Date:   date,
			Amount: toCents(amount),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card payment rows: %w", err)
	}

	return totals, nil
}

// ShiftCashTotals returns cash takings per (employee, device) per day. A
// refund document subtracts from the shift's expected cash.
func (r *AroniumRepository) ShiftCashTotals(ctx context.Context, startDate, endDate string) ([]*models.ShiftCashTotal, error) {
	startDate, endDate = boundLedgerWindow(startDate, endDate)

	query := `
		SELECT
			DATE(P.Date) AS Day,
			CAST(D.UserId AS TEXT) AS EmployeeId,
			CAST(D.PointOfSaleId AS TEXT) AS DeviceId,
			COALESCE(CAST(D.ShiftId AS TEXT), '') AS ShiftId,
			SUM(CASE WHEN DT.Name = 'Refund' THEN -P.Amount ELSE P.Amount END) AS Total
		FROM Payment P
		LEFT JOIN Document D ON P.DocumentId = D.Id
		LEFT JOIN DocumentType DT ON D.DocumentTypeId = DT.Id
		WHERE
			P.PaymentTypeId = ? AND
			DATE(P.Date) BETWEEN ? AND ?
		GROUP BY DATE(P.Date), D.UserId, D.PointOfSaleId, D.ShiftId
		ORDER BY Day, EmployeeId, DeviceId
	`

	rows, err := r.db.QueryContext(ctx, query, aroniumPaymentTypeCash, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift cash: %w", err)
	}
	defer rows.Close()

	var shifts []*models.ShiftCashTotal
	for rows.Next() {
		var date, employeeID, deviceID, shiftID string
		var amount float64
		if err := rows.Scan(&date, &employeeID, &deviceID, &shiftID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan shift cash row: %w", err)
		}
		shifts = append(shifts, &models.ShiftCashTotal{
			Date:        date,
			EmployeeID:  employeeID,
			POSDeviceID: deviceID,
			ShiftID:     shiftID,
			Amount:      toCents(amount),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shift cash rows: %w", err)
	}

	return shifts, nil
}

func boundLedgerWindow(startDate, endDate string) (string, string) {
	if startDate == "" {
		startDate = ledgerEpoch
	}
	if endDate == "" {
		endDate = "9999-12-31"
	}
	return startDate, endDate
}

// toCents converts a ledger decimal amount to integer cents exactly.
func toCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
