package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	log "github.com/sirupsen/logrus"

	"parkops/dates"
	"parkops/models"
)

var (
	// ErrBagNotFound is returned when a bag id has no assignment.
	ErrBagNotFound = errors.New("no cash bag assignment found for bag id")

	// ErrBagAlreadyVerified is returned when a bag already has a blind
	// count recorded. A bag is only counted blind once.
	ErrBagAlreadyVerified = errors.New("cash bag has already been verified")
)

// bagIDAlphabet is the character set for generated bag identifiers.
const bagIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DailyTotalIdentifier marks the single aggregate assignment per day.
const DailyTotalIdentifier = "daily-total"

// cashBagService builds expected-amount cash bag assignments from the two
// POS sources and reconciles them against later blind-count verifications.
type cashBagService struct {
	primary   PrimaryPOSAdapter
	secondary SecondaryPOSAdapter
	repo      CashBagRepository
	runDate   string
}

// NewCashBagService creates the cash bag engine. runDate is the ISO date
// the process was started with; the default assignment window is the day
// before it.
func NewCashBagService(primary PrimaryPOSAdapter, secondary SecondaryPOSAdapter, repo CashBagRepository, runDate string) CashBagService {
	return &cashBagService{
		primary:   primary,
		secondary: secondary,
		repo:      repo,
		runDate:   runDate,
	}
}

// CreateAssignments builds one assignment per day from the aggregate POS
// source and one per (employee, device) shift from the multi-till source,
// then persists them as a single batch. Without an explicit range the
// window is yesterday only.
func (s *cashBagService) CreateAssignments(ctx context.Context, startDate, endDate string) ([]*models.CashBagAssignment, error) {
	if startDate == "" && endDate == "" {
		yesterday, err := dates.AddDays(s.runDate, -1)
		if err != nil {
			return nil, err
		}
		startDate, endDate = yesterday, yesterday
	}

	cashDays, err := s.primary.DailyCashTotals(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily cash totals: %w", err)
	}

	shifts, err := s.secondary.ShiftCashTotals(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift cash totals: %w", err)
	}

	assignments := make([]*models.CashBagAssignment, 0, len(cashDays)+len(shifts))

	for _, day := range cashDays {
		assignmentDate, err := dates.Parse(day.Date)
		if err != nil {
			return nil, err
		}
		bagID, err := GenerateBagID()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, &models.CashBagAssignment{
			BagID:            bagID,
			AssignmentDate:   assignmentDate,
			SourceSystem:     models.SourceLoyverse,
			SourceIdentifier: DailyTotalIdentifier,
			ExpectedAmount:   day.ExpectedCash,
		})
	}

	for _, shift := range shifts {
		assignmentDate, err := dates.Parse(shift.Date)
		if err != nil {
			return nil, err
		}
		bagID, err := GenerateBagID()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, &models.CashBagAssignment{
			BagID:            bagID,
			AssignmentDate:   assignmentDate,
			SourceSystem:     models.SourceAronium,
			SourceIdentifier: shiftIdentifier(shift.EmployeeID, shift.POSDeviceID),
			ExpectedAmount:   shift.Amount,
			EmployeeID:       shift.EmployeeID,
			POSDeviceID:      shift.POSDeviceID,
			ShiftID:          shift.ShiftID,
		})
	}

	if len(assignments) == 0 {
		log.Warnf("No cash bag assignments for %s to %s", startDate, endDate)
		return []*models.CashBagAssignment{}, nil
	}

	if err := s.repo.CreateAssignments(ctx, assignments); err != nil {
		return nil, fmt.Errorf("failed to persist cash bag assignments: %w", err)
	}
	log.Infof("Created %d cash bag assignments for %s to %s", len(assignments), startDate, endDate)

	return assignments, nil
}

// VerifyBag records a blind count for a bag. The variance (counted minus
// expected) is computed here, once, and never recomputed. A bag without an
// assignment is rejected, as is a second count for the same bag.
func (s *cashBagService) VerifyBag(ctx context.Context, bagID string, countedAmount int64, countedBy, notes string) (*models.CashBagVerification, error) {
	assignment, err := s.repo.GetAssignmentByBagID(ctx, bagID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up assignment for %s: %w", bagID, err)
	}
	if assignment == nil {
		return nil, fmt.Errorf("%w: %s", ErrBagNotFound, bagID)
	}

	existing, err := s.repo.GetVerificationByBagID(ctx, bagID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up verification for %s: %w", bagID, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrBagAlreadyVerified, bagID)
	}

	verification := &models.CashBagVerification{
		BagID:         bagID,
		CountedAmount: countedAmount,
		CountedBy:     countedBy,
		Variance:      countedAmount - assignment.ExpectedAmount,
		Notes:         notes,
	}

	if err := s.repo.CreateVerification(ctx, verification); err != nil {
		return nil, fmt.Errorf("failed to persist verification for %s: %w", bagID, err)
	}
	log.Infof("Verified cash bag %s: counted %d, variance %d", bagID, countedAmount, verification.Variance)

	return verification, nil
}

// GetBag returns a bag's assignment with its verification, if any.
func (s *cashBagService) GetBag(ctx context.Context, bagID string) (*models.VerifiedBag, error) {
	assignment, err := s.repo.GetAssignmentByBagID(ctx, bagID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up assignment for %s: %w", bagID, err)
	}
	if assignment == nil {
		return nil, fmt.Errorf("%w: %s", ErrBagNotFound, bagID)
	}

	verification, err := s.repo.GetVerificationByBagID(ctx, bagID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up verification for %s: %w", bagID, err)
	}

	return &models.VerifiedBag{Assignment: assignment, Verification: verification}, nil
}

// ListAssignments returns assignments in the window, defaulting to the run
// date's preceding day like CreateAssignments.
func (s *cashBagService) ListAssignments(ctx context.Context, startDate, endDate string) ([]*models.CashBagAssignment, error) {
	if startDate == "" && endDate == "" {
		yesterday, err := dates.AddDays(s.runDate, -1)
		if err != nil {
			return nil, err
		}
		startDate, endDate = yesterday, yesterday
	}

	start, err := dates.Parse(startDate)
	if err != nil {
		return nil, err
	}
	end, err := dates.Parse(endDate)
	if err != nil {
		return nil, err
	}

	return s.repo.GetAssignmentsByDateRange(ctx, start, end)
}

// ListUnverified returns assignments awaiting a blind count.
func (s *cashBagService) ListUnverified(ctx context.Context) ([]*models.CashBagAssignment, error) {
	return s.repo.GetUnverified(ctx)
}

// ListVerified returns all verifications joined with their assignments.
func (s *cashBagService) ListVerified(ctx context.Context) ([]*models.VerifiedBag, error) {
	return s.repo.GetVerifiedBags(ctx)
}

// GenerateBagID returns a new bag identifier: "BAG-" followed by 8 random
// uppercase alphanumeric characters. Uniqueness is probabilistic; the
// assignments table's unique constraint catches the improbable collision.
func GenerateBagID() (string, error) {
	id := make([]byte, 8)
	max := big.NewInt(int64(len(bagIDAlphabet)))
	for i := range id {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate bag id: %w", err)
		}
		id[i] = bagIDAlphabet[n.Int64()]
	}
	return "BAG-" + string(id), nil
}

// shiftIdentifier derives a short reproducible identifier from an employee
// and device id pair without needing a separate lookup table.
func shiftIdentifier(employeeID, deviceID string) string {
	return fmt.Sprintf("emp-%s_dev-%s", shortID(employeeID), shortID(deviceID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
