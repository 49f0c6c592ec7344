package service

import (
	"context"
	"time"

	"parkops/models"
)

// Payment source adapters. Each returns totals already aggregated by that
// source's own calendar semantics; the audit engine combines them by date
// string equality only. An empty start/end means the adapter's default
// window.

// TerminalAdapter reads card settlement reports from the payment terminal
// gateway.
type TerminalAdapter interface {
	// DailyCardPayments returns one total per settlement day.
	DailyCardPayments(ctx context.Context, startDate, endDate string) ([]*models.DailyTotal, error)
}

// PrimaryPOSAdapter reads receipts from the cloud POS.
type PrimaryPOSAdapter interface {
	// DailyCardPayments returns one card total per receipt day.
	DailyCardPayments(ctx context.Context, startDate, endDate string) ([]*models.DailyTotal, error)

	// DailyCashTotals returns the daily cash breakdown (sales, refunds,
	// expected cash) used for cash bag assignments.
	DailyCashTotals(ctx context.Context, startDate, endDate string) ([]*models.CashDayTotal, error)
}

// SecondaryPOSAdapter reads the in-store POS's local payment ledger.
type SecondaryPOSAdapter interface {
	// DailyCardPayments returns one card total per ledger day.
	DailyCardPayments(ctx context.Context, startDate, endDate string) ([]*models.DailyTotal, error)

	// ShiftCashTotals returns shift-level cash breakdowns per (employee,
	// device) within the window.
	ShiftCashTotals(ctx context.Context, startDate, endDate string) ([]*models.ShiftCashTotal, error)
}

// CardPaymentAuditRepository defines data access for audit records.
// Records are append-only: there is no update or delete path.
type CardPaymentAuditRepository interface {
	// CreateBatch inserts all records in a single transaction.
	CreateBatch(ctx context.Context, records []*models.CardPaymentAudit) error

	// GetByDateRange returns records with audit_date within [start, end],
	// ascending by date.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.CardPaymentAudit, error)
}

// CashBagRepository defines data access for cash bag assignments and
// verifications. Both tables are append-only from this core's perspective.
type CashBagRepository interface {
	// CreateAssignments inserts all assignments in a single transaction.
	// Bag IDs must already be set by the caller.
	CreateAssignments(ctx context.Context, assignments []*models.CashBagAssignment) error

	// GetAssignmentByBagID returns nil when the bag is unknown.
	GetAssignmentByBagID(ctx context.Context, bagID string) (*models.CashBagAssignment, error)

	// GetAssignmentsByDateRange returns assignments within [start, end].
	GetAssignmentsByDateRange(ctx context.Context, start, end time.Time) ([]*models.CashBagAssignment, error)

	// GetUnverified returns assignments that have no verification yet.
	GetUnverified(ctx context.Context) ([]*models.CashBagAssignment, error)

	// CreateVerification inserts a verification row.
	CreateVerification(ctx context.Context, verification *models.CashBagVerification) error

	// GetVerificationByBagID returns nil when the bag has no verification.
	GetVerificationByBagID(ctx context.Context, bagID string) (*models.CashBagVerification, error)

	// GetVerifiedBags returns all verifications joined with their
	// assignments, most recently verified first.
	GetVerifiedBags(ctx context.Context) ([]*models.VerifiedBag, error)
}

// AuditService reconciles the three payment sources into persisted audit
// records and reports over them.
type AuditService interface {
	// CreateCardPaymentAudit merges daily card totals from all sources for
	// the window and persists one record per date.
	CreateCardPaymentAudit(ctx context.Context, startDate, endDate string) ([]*models.CardPaymentAudit, error)

	// GetCardAuditReport returns the stored records for the window plus
	// summary statistics. Empty bounds select the default window.
	GetCardAuditReport(ctx context.Context, startDate, endDate string) (*models.CardAuditReport, error)
}

// CashBagService creates expected-amount cash bag assignments and records
// blind-count verifications against them.
type CashBagService interface {
	CreateAssignments(ctx context.Context, startDate, endDate string) ([]*models.CashBagAssignment, error)
	VerifyBag(ctx context.Context, bagID string, countedAmount int64, countedBy, notes string) (*models.CashBagVerification, error)
	GetBag(ctx context.Context, bagID string) (*models.VerifiedBag, error)
	ListAssignments(ctx context.Context, startDate, endDate string) ([]*models.CashBagAssignment, error)
	ListUnverified(ctx context.Context) ([]*models.CashBagAssignment, error)
	ListVerified(ctx context.Context) ([]*models.VerifiedBag, error)
}

// InventorySyncer pushes online ticket sales onto POS stock levels.
type InventorySyncer interface {
	Sync(ctx context.Context, date string) error
}

// TicketingAdapter reads guest data from the online ticketing platform for
// the inventory sync.
type TicketingAdapter interface {
	// EventIDForDate resolves the event whose schedule covers the date, or
	// "" when none does.
	EventIDForDate(ctx context.Context, date string) (string, error)

	// Tickets returns the event's tickets for the given date.
	Tickets(ctx context.Context, eventID, date string) ([]*Ticket, error)
}

// Ticket is the slice of guest data the inventory sync needs.
type Ticket struct {
	OrderID        string
	TicketType     string
	PurchaserName  string
	PurchaserEmail string
}

// StockLevel is one inventory level write for the cloud POS.
type StockLevel struct {
	VariantID  string `json:"variant_id"`
	StoreID    string `json:"store_id"`
	StockAfter int    `json:"stock_after"`
}

// InventoryWriter applies stock levels to the cloud POS.
type InventoryWriter interface {
	UpdateInventory(ctx context.Context, levels []*StockLevel) error
}
