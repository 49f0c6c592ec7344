package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"parkops/models"
)

// MockTerminalAdapter is a mock implementation of TerminalAdapter
type MockTerminalAdapter struct {
	mock.Mock
}

func (m *MockTerminalAdapter) DailyCardPayments(ctx context.Context, startDate, endDate string) ([]*models.DailyTotal, error) {
	args := m.Called(ctx, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DailyTotal), args.Error(1)
}

// MockPrimaryPOSAdapter is a mock implementation of PrimaryPOSAdapter
type MockPrimaryPOSAdapter struct {
	mock.Mock
}

func (m *MockPrimaryPOSAdapter) DailyCardPayments(ctx context.Context, startDate, endDate string) ([]*models.DailyTotal, error) {
	args := m.Called(ctx, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DailyTotal), args.Error(1)
}

func (m *MockPrimaryPOSAdapter) DailyCashTotals(ctx context.Context, startDate, endDate string) ([]*models.CashDayTotal, error) {
	args := m.Called(ctx, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CashDayTotal), args.Error(1)
}

// MockSecondaryPOSAdapter is a mock implementation of SecondaryPOSAdapter
type MockSecondaryPOSAdapter struct {
	mock.Mock
}

func (m *MockSecondaryPOSAdapter) DailyCardPayments(ctx context.Context, startDate, endDate string) ([]*models.DailyTotal, error) {
	args := m.Called(ctx, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DailyTotal), args.Error(1)
}

func (m *MockSecondaryPOSAdapter) ShiftCashTotals(ctx context.Context, startDate, endDate string) ([]*models.ShiftCashTotal, error) {
	args := m.Called(ctx, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ShiftCashTotal), args.Error(1)
}

// MockCardPaymentAuditRepository is a mock implementation of CardPaymentAuditRepository
type MockCardPaymentAuditRepository struct {
	mock.Mock
}

func (m *MockCardPaymentAuditRepository) CreateBatch(ctx context.Context, records []*models.CardPaymentAudit) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockCardPaymentAuditRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.CardPaymentAudit, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CardPaymentAudit), args.Error(1)
}

// MockCashBagRepository is a mock implementation of CashBagRepository
type MockCashBagRepository struct {
	mock.Mock
}

func (m *MockCashBagRepository) CreateAssignments(ctx context.Context, assignments []*models.CashBagAssignment) error {
	args := m.Called(ctx, assignments)
	return args.Error(0)
}

func (m *MockCashBagRepository) GetAssignmentByBagID(ctx context.Context, bagID string) (*models.CashBagAssignment, error) {
	args := m.Called(ctx, bagID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashBagAssignment), args.Error(1)
}

func (m *MockCashBagRepository) GetAssignmentsByDateRange(ctx context.Context, start, end time.Time) ([]*models.CashBagAssignment, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CashBagAssignment), args.Error(1)
}

func (m *MockCashBagRepository) GetUnverified(ctx context.Context) ([]*models.CashBagAssignment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CashBagAssignment), args.Error(1)
}

func (m *MockCashBagRepository) CreateVerification(ctx context.Context, verification *models.CashBagVerification) error {
	args := m.Called(ctx, verification)
	return args.Error(0)
}

func (m *MockCashBagRepository) GetVerificationByBagID(ctx context.Context, bagID string) (*models.CashBagVerification, error) {
	args := m.Called(ctx, bagID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashBagVerification), args.Error(1)
}

func (m *MockCashBagRepository) GetVerifiedBags(ctx context.Context) ([]*models.VerifiedBag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VerifiedBag), args.Error(1)
}

// MockTicketingAdapter is a mock implementation of TicketingAdapter
type MockTicketingAdapter struct {
	mock.Mock
}

func (m *MockTicketingAdapter) EventIDForDate(ctx context.Context, date string) (string, error) {
	args := m.Called(ctx, date)
	return args.String(0), args.Error(1)
}

func (m *MockTicketingAdapter) Tickets(ctx context.Context, eventID, date string) ([]*Ticket, error) {
	args := m.Called(ctx, eventID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Ticket), args.Error(1)
}

// MockInventoryWriter is a mock implementation of InventoryWriter
type MockInventoryWriter struct {
	mock.Mock
}

func (m *MockInventoryWriter) UpdateInventory(ctx context.Context, levels []*StockLevel) error {
	args := m.Called(ctx, levels)
	return args.Error(0)
}
