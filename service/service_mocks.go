package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"parkops/models"
)

// MockAuditService is a mock implementation of AuditService
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) CreateCardPaymentAudit(ctx context.Context, startDate, endDate string) ([]*models.CardPaymentAudit, error) {
	args := m.Called(ctx, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CardPaymentAudit), args.Error(1)
}

func (m *MockAuditService) GetCardAuditReport(ctx context.Context, startDate, endDate string) (*models.CardAuditReport, error) {
	args := m.Called(ctx, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CardAuditReport), args.Error(1)
}

// MockCashBagService is a mock implementation of CashBagService
type MockCashBagService struct {
	mock.Mock
}

func (m *MockCashBagService) CreateAssignments(ctx context.Context, startDate, endDate string) ([]*models.CashBagAssignment, error) {
	args := m.Called(ctx, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CashBagAssignment), args.Error(1)
}

func (m *MockCashBagService) VerifyBag(ctx context.Context, bagID string, countedAmount int64, countedBy, notes string) (*models.CashBagVerification, error) {
	args := m.Called(ctx, bagID, countedAmount, countedBy, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashBagVerification), args.Error(1)
}

func (m *MockCashBagService) GetBag(ctx context.Context, bagID string) (*models.VerifiedBag, error) {
	args := m.Called(ctx, bagID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerifiedBag), args.Error(1)
}

func (m *MockCashBagService) ListAssignments(ctx context.Context, startDate, endDate string) ([]*models.CashBagAssignment, error) {
	args := m.Called(ctx, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CashBagAssignment), args.Error(1)
}

func (m *MockCashBagService) ListUnverified(ctx context.Context) ([]*models.CashBagAssignment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CashBagAssignment), args.Error(1)
}

func (m *MockCashBagService) ListVerified(ctx context.Context) ([]*models.VerifiedBag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VerifiedBag), args.Error(1)
}
