package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"parkops/models"
)

func day(date string) time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAuditService_CreateCardPaymentAudit_Arithmetic(t *testing.T) {
	ctx := context.Background()

	mockTerminal := new(MockTerminalAdapter)
	mockPrimary := new(MockPrimaryPOSAdapter)
	mockSecondary := new(MockSecondaryPOSAdapter)
	mockRepo := new(MockCardPaymentAuditRepository)

	mockTerminal.On("DailyCardPayments", ctx, "2025-06-01", "2025-06-01").
		Return([]*models.DailyTotal{{Date: "2025-06-01", Amount: 100}}, nil)
	mockPrimary.On("DailyCardPayments", ctx, "2025-06-01", "2025-06-01").
		Return([]*models.DailyTotal{{Date: "2025-06-01", Amount: 40}}, nil)
	mockSecondary.On("DailyCardPayments", ctx, "2025-06-01", "2025-06-01").
		Return([]*models.DailyTotal{{Date: "2025-06-01", Amount: 30}}, nil)

	var created []*models.CardPaymentAudit
	mockRepo.On("CreateBatch", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).([]*models.CardPaymentAudit)
		}).
		Return(nil)
	mockRepo.On("GetByDateRange", ctx, day("2025-06-01"), day("2025-06-01")).
		Return([]*models.CardPaymentAudit{}, nil)

	svc := NewAuditService(mockTerminal, mockPrimary, mockSecondary, mockRepo, "2025-06-02")

	_, err := svc.CreateCardPaymentAudit(ctx, "2025-06-01", "2025-06-01")
	require.NoError(t, err)

	require.Len(t, created, 1)
	record := created[0]
	assert.Equal(t, day("2025-06-01"), record.AuditDate)
	assert.Equal(t, int64(100), record.PaycloudAmount)
	assert.Equal(t, int64(40), record.LoyverseAmount)
	assert.Equal(t, int64(30), record.AroniumAmount)
	assert.Equal(t, int64(70), record.POSTotal)
	assert.Equal(t, int64(30), record.Variance)

	mockRepo.AssertExpectations(t)
}

func TestAuditService_CreateCardPaymentAudit_UnionOfDates(t *testing.T) {
	ctx := context.Background()

	mockTerminal := new(MockTerminalAdapter)
	mockPrimary := new(MockPrimaryPOSAdapter)
	mockSecondary := new(MockSecondaryPOSAdapter)
	mockRepo := new(MockCardPaymentAuditRepository)

	// Source A: {D1, D2}, source B: {D2, D3}, source C: {}.
	mockTerminal.On("DailyCardPayments", ctx, "", "").
		Return([]*models.DailyTotal{
			{Date: "2025-06-03", Amount: 300},
			{Date: "2025-06-01", Amount: 100},
		}, nil)
	mockPrimary.On("DailyCardPayments", ctx, "", "").
		Return([]*models.DailyTotal{
			{Date: "2025-06-03", Amount: 150},
			{Date: "2025-06-05", Amount: 500},
		}, nil)
	mockSecondary.On("DailyCardPayments", ctx, "", "").
		Return([]*models.DailyTotal{}, nil)

	var created []*models.CardPaymentAudit
	mockRepo.On("CreateBatch", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).([]*models.CardPaymentAudit)
		}).
		Return(nil)
	// No explicit range: the service re-queries the span it just wrote.
	mockRepo.On("GetByDateRange", ctx, day("2025-06-01"), day("2025-06-05")).
		Return([]*models.CardPaymentAudit{}, nil)

	svc := NewAuditService(mockTerminal, mockPrimary, mockSecondary, mockRepo, "2025-06-06")

	_, err := svc.CreateCardPaymentAudit(ctx, "", "")
	require.NoError(t, err)

	// Exactly the union of dates, ascending, missing amounts as zero.
	require.Len(t, created, 3)
	assert.Equal(t, day("2025-06-01"), created[0].AuditDate)
	assert.Equal(t, day("2025-06-03"), created[1].AuditDate)
	assert.Equal(t, day("2025-06-05"), created[2].AuditDate)

	assert.Equal(t, int64(100), created[0].PaycloudAmount)
	assert.Equal(t, int64(0), created[0].LoyverseAmount)
	assert.Equal(t, int64(0), created[0].AroniumAmount)
	assert.Equal(t, int64(100), created[0].Variance)

	assert.Equal(t, int64(300), created[1].PaycloudAmount)
	assert.Equal(t, int64(150), created[1].LoyverseAmount)
	assert.Equal(t, int64(150), created[1].Variance)

	assert.Equal(t, int64(0), created[2].PaycloudAmount)
	assert.Equal(t, int64(500), created[2].LoyverseAmount)
	assert.Equal(t, int64(-500), created[2].Variance)

	mockRepo.AssertExpectations(t)
}

func TestAuditService_CreateCardPaymentAudit_AdapterFailureAborts(t *testing.T) {
	ctx := context.Background()

	mockTerminal := new(MockTerminalAdapter)
	mockPrimary := new(MockPrimaryPOSAdapter)
	mockSecondary := new(MockSecondaryPOSAdapter)
	mockRepo := new(MockCardPaymentAuditRepository)

	mockTerminal.On("DailyCardPayments", ctx, "", "").
		Return(nil, errors.New("gateway timeout"))

	svc := NewAuditService(mockTerminal, mockPrimary, mockSecondary, mockRepo, "2025-06-02")

	_, err := svc.CreateCardPaymentAudit(ctx, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway timeout")

	// All-or-nothing: nothing persisted, other sources not combined.
	mockRepo.AssertNotCalled(t, "CreateBatch")
}

func TestAuditService_CreateCardPaymentAudit_NoDates(t *testing.T) {
	ctx := context.Background()

	mockTerminal := new(MockTerminalAdapter)
	mockPrimary := new(MockPrimaryPOSAdapter)
	mockSecondary := new(MockSecondaryPOSAdapter)
	mockRepo := new(MockCardPaymentAuditRepository)

	mockTerminal.On("DailyCardPayments", ctx, "", "").Return([]*models.DailyTotal{}, nil)
	mockPrimary.On("DailyCardPayments", ctx, "", "").Return([]*models.DailyTotal{}, nil)
	mockSecondary.On("DailyCardPayments", ctx, "", "").Return([]*models.DailyTotal{}, nil)

	svc := NewAuditService(mockTerminal, mockPrimary, mockSecondary, mockRepo, "2025-06-02")

	records, err := svc.CreateCardPaymentAudit(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, records)
	mockRepo.AssertNotCalled(t, "CreateBatch")
	mockRepo.AssertNotCalled(t, "GetByDateRange")
}

func TestAuditService_CreateCardPaymentAudit_NoDatesExplicitRangeReturnsStoredRows(t *testing.T) {
	ctx := context.Background()

	mockTerminal := new(MockTerminalAdapter)
	mockPrimary := new(MockPrimaryPOSAdapter)
	mockSecondary := new(MockSecondaryPOSAdapter)
	mockRepo := new(MockCardPaymentAuditRepository)

	mockTerminal.On("DailyCardPayments", ctx, "2025-06-01", "2025-06-03").Return([]*models.DailyTotal{}, nil)
	mockPrimary.On("DailyCardPayments", ctx, "2025-06-01", "2025-06-03").Return([]*models.DailyTotal{}, nil)
	mockSecondary.On("DailyCardPayments", ctx, "2025-06-01", "2025-06-03").Return([]*models.DailyTotal{}, nil)

	stored := []*models.CardPaymentAudit{
		{AuditDate: day("2025-06-02"), PaycloudAmount: 400, LoyverseAmount: 400},
	}
	mockRepo.On("GetByDateRange", ctx, day("2025-06-01"), day("2025-06-03")).Return(stored, nil)

	svc := NewAuditService(mockTerminal, mockPrimary, mockSecondary, mockRepo, "2025-06-02")

	// Sources reported nothing for the window, but rows written by an
	// earlier run still belong to the requested range.
	records, err := svc.CreateCardPaymentAudit(ctx, "2025-06-01", "2025-06-03")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, day("2025-06-02"), records[0].AuditDate)
	mockRepo.AssertNotCalled(t, "CreateBatch")
	mockRepo.AssertExpectations(t)
}

func TestAuditService_GetCardAuditReport_Summary(t *testing.T) {
	ctx := context.Background()

	mockTerminal := new(MockTerminalAdapter)
	mockPrimary := new(MockPrimaryPOSAdapter)
	mockSecondary := new(MockSecondaryPOSAdapter)
	mockRepo := new(MockCardPaymentAuditRepository)

	records := []*models.CardPaymentAudit{
		{AuditDate: day("2025-06-01"), Variance: 0},
		{AuditDate: day("2025-06-02"), Variance: 1}, // exactly one cent: not "with variance"
		{AuditDate: day("2025-06-03"), Variance: -250},
		{AuditDate: day("2025-06-04"), Variance: 125},
	}
	mockRepo.On("GetByDateRange", ctx, day("2025-06-01"), day("2025-06-04")).
		Return(records, nil)

	svc := NewAuditService(mockTerminal, mockPrimary, mockSecondary, mockRepo, "2025-06-05")

	report, err := svc.GetCardAuditReport(ctx, "2025-06-01", "2025-06-04")
	require.NoError(t, err)

	assert.Equal(t, 4, report.Summary.TotalDays)
	assert.Equal(t, 2, report.Summary.DaysWithVariance)
	assert.Equal(t, int64(376), report.Summary.TotalVariance)
	assert.Equal(t, int64(250), report.Summary.LargestVariance)
	assert.Equal(t, int64(94), report.Summary.AverageVariance)
	assert.Len(t, report.Records, 4)
}

func TestAuditService_GetCardAuditReport_DefaultWindow(t *testing.T) {
	ctx := context.Background()

	mockTerminal := new(MockTerminalAdapter)
	mockPrimary := new(MockPrimaryPOSAdapter)
	mockSecondary := new(MockSecondaryPOSAdapter)
	mockRepo := new(MockCardPaymentAuditRepository)

	// Default window: 30 days back from the run date.
	mockRepo.On("GetByDateRange", ctx, day("2025-05-03"), day("2025-06-02")).
		Return([]*models.CardPaymentAudit{}, nil)

	svc := NewAuditService(mockTerminal, mockPrimary, mockSecondary, mockRepo, "2025-06-02")

	report, err := svc.GetCardAuditReport(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.TotalDays)
	mockRepo.AssertExpectations(t)
}
