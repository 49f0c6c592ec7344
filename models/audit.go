package models

import (
	"time"
)

// All monetary amounts are integer cents.

// CardPaymentAudit is one per-date variance record comparing the Paycloud
// card terminal settlement against the combined POS card totals.
type CardPaymentAudit struct {
	ID             int64     `db:"id" json:"id"`
	AuditDate      time.Time `db:"audit_date" json:"audit_date"`
	PaycloudAmount int64     `db:"paycloud_amount" json:"paycloud_amount"`
	LoyverseAmount int64     `db:"loyverse_amount" json:"loyverse_amount"`
	AroniumAmount  int64     `db:"aronium_amount" json:"aronium_amount"`
	POSTotal       int64     `db:"pos_total" json:"pos_total"`
	Variance       int64     `db:"variance" json:"variance"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Cash bag source systems.
const (
	SourceLoyverse = "loyverse"
	SourceAronium  = "aronium"
)

// CashBagAssignment records the expected cash amount for one bag: either a
// whole day's takings from the aggregate POS source, or one (employee,
// device) shift from the multi-till source.
type CashBagAssignment struct {
	ID               int64     `db:"id" json:"id"`
	BagID            string    `db:"bag_id" json:"bag_id"`
	AssignmentDate   time.Time `db:"assignment_date" json:"assignment_date"`
	SourceSystem     string    `db:"source_system" json:"source_system"`
	SourceIdentifier string    `db:"source_identifier" json:"source_identifier"`
	ExpectedAmount   int64     `db:"expected_amount" json:"expected_amount"`
	EmployeeID       string    `db:"employee_id" json:"employee_id,omitempty"`
	POSDeviceID      string    `db:"pos_device_id" json:"pos_device_id,omitempty"`
	ShiftID          string    `db:"shift_id" json:"shift_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// CashBagVerification is the blind count for a bag. Variance is computed
// once at creation (counted minus expected) and never recomputed.
type CashBagVerification struct {
	ID            int64     `db:"id" json:"id"`
	BagID         string    `db:"bag_id" json:"bag_id"`
	CountedAmount int64     `db:"counted_amount" json:"counted_amount"`
	CountedBy     string    `db:"counted_by" json:"counted_by"`
	Variance      int64     `db:"variance" json:"variance"`
	Notes         string    `db:"notes" json:"notes,omitempty"`
	VerifiedAt    time.Time `db:"verified_at" json:"verified_at"`
}

// VerifiedBag pairs a verification with its assignment for reporting.
type VerifiedBag struct {
	Assignment   *CashBagAssignment   `json:"assignment"`
	Verification *CashBagVerification `json:"verification,omitempty"`
}

// CardAuditSummary holds report reducers over a set of audit records.
// All statistics operate on the absolute value of the variance.
type CardAuditSummary struct {
	TotalDays        int   `json:"total_days"`
	DaysWithVariance int   `json:"days_with_variance"`
	TotalVariance    int64 `json:"total_variance"`
	LargestVariance  int64 `json:"largest_variance"`
	AverageVariance  int64 `json:"average_variance"`
}

// CardAuditReport is the admin-facing audit history view.
type CardAuditReport struct {
	Summary *CardAuditSummary   `json:"summary"`
	Records []*CardPaymentAudit `json:"records"`
}
