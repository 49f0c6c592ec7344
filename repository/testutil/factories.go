package testutil

import (
	"time"

	"parkops/models"
)

// CreateTestAudit creates an audit record with consistent arithmetic
func CreateTestAudit(auditDate time.Time, paycloud, loyverse, aronium int64) *models.CardPaymentAudit {
	posTotal := loyverse + aronium
	return &models.CardPaymentAudit{
		AuditDate:      auditDate,
		PaycloudAmount: paycloud,
		LoyverseAmount: loyverse,
		AroniumAmount:  aronium,
		POSTotal:       posTotal,
		Variance:       paycloud - posTotal,
	}
}

// CreateTestAssignment creates a daily-total assignment for the aggregate
// POS source
func CreateTestAssignment(bagID string, assignmentDate time.Time, expected int64) *models.CashBagAssignment {
	return &models.CashBagAssignment{
		BagID:            bagID,
		AssignmentDate:   assignmentDate,
		SourceSystem:     models.SourceLoyverse,
		SourceIdentifier: "daily-total",
		ExpectedAmount:   expected,
	}
}

// CreateTestShiftAssignment creates a per-shift assignment for the
// multi-till POS source
func CreateTestShiftAssignment(bagID string, assignmentDate time.Time, employeeID, deviceID string, expected int64) *models.CashBagAssignment {
	return &models.CashBagAssignment{
		BagID:            bagID,
		AssignmentDate:   assignmentDate,
		SourceSystem:     models.SourceAronium,
		SourceIdentifier: "emp-" + employeeID + "_dev-" + deviceID,
		ExpectedAmount:   expected,
		EmployeeID:       employeeID,
		POSDeviceID:      deviceID,
	}
}
