package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"parkops/database"
	"parkops/models"
)

// CashBagRepository implements the service.CashBagRepository interface.
// Assignments and verifications are append-only.
type CashBagRepository struct {
	db *database.DB
}

// NewCashBagRepository creates a new cash bag repository
func NewCashBagRepository(db *database.DB) *CashBagRepository {
	return &CashBagRepository{db: db}
}

const assignmentColumns = `
	id, bag_id, assignment_date, source_system, source_identifier,
	expected_amount, COALESCE(employee_id, ''), COALESCE(pos_device_id, ''),
	COALESCE(shift_id, ''), created_at
`

// CreateAssignments inserts all assignments within one transaction. Bag IDs
// must already be set by the caller.
func (r *CashBagRepository) CreateAssignments(ctx context.Context, assignments []*models.CashBagAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	query := `
		INSERT INTO cash_bag_assignments
		(bag_id, assignment_date, source_system, source_identifier,
		 expected_amount, employee_id, pos_device_id, shift_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		RETURNING id, created_at
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, a := range assignments {
			err := tx.QueryRow(ctx, query,
				a.BagID,
				a.AssignmentDate,
				a.SourceSystem,
				a.SourceIdentifier,
				a.ExpectedAmount,
				a.EmployeeID,
				a.POSDeviceID,
				a.ShiftID,
			).Scan(&a.ID, &a.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to create assignment %s: %w", a.BagID, err)
			}
		}
		return nil
	})
}

// GetAssignmentByBagID returns the assignment for a bag, or nil when the
// bag is unknown
func (r *CashBagRepository) GetAssignmentByBagID(ctx context.Context, bagID string) (*models.CashBagAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM cash_bag_assignments WHERE bag_id = $1`

	assignment, err := scanAssignment(r.db.QueryRow(ctx, query, bagID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment %s: %w", bagID, err)
	}
	return assignment, nil
}

// GetAssignmentsByDateRange returns assignments within [start, end]
func (r *CashBagRepository) GetAssignmentsByDateRange(ctx context.Context, start, end time.Time) ([]*models.CashBagAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM cash_bag_assignments
		WHERE assignment_date BETWEEN $1 AND $2
		ORDER BY assignment_date ASC, source_system, source_identifier
	`

	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	return collectAssignments(rows)
}

// GetUnverified returns assignments that have no verification yet, most
// recent assignment dates first
func (r *CashBagRepository) GetUnverified(ctx context.Context) ([]*models.CashBagAssignment, error) {
	query := `
		SELECT ` + qualifyAssignmentColumns("cba") + `
		FROM cash_bag_assignments cba
		LEFT JOIN cash_bag_verifications cbv ON cba.bag_id = cbv.bag_id
		WHERE cbv.id IS NULL
		ORDER BY cba.assignment_date DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query unverified assignments: %w", err)
	}
	defer rows.Close()

	return collectAssignments(rows)
}

// CreateVerification inserts a verification row
func (r *CashBagRepository) CreateVerification(ctx context.Context, verification *models.CashBagVerification) error {
	query := `
		INSERT INTO cash_bag_verifications
		(bag_id, counted_amount, counted_by, variance, notes)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, verified_at
	`

	err := r.db.QueryRow(ctx, query,
		verification.BagID,
		verification.CountedAmount,
		verification.CountedBy,
		verification.Variance,
		verification.Notes,
	).Scan(&verification.ID, &verification.VerifiedAt)
	if err != nil {
		return fmt.Errorf("failed to create verification for %s: %w", verification.BagID, err)
	}

	return nil
}

// GetVerificationByBagID returns the verification for a bag, or nil when
// the bag has not been counted
func (r *CashBagRepository) GetVerificationByBagID(ctx context.Context, bagID string) (*models.CashBagVerification, error) {
	query := `
		SELECT id, bag_id, counted_amount, counted_by, variance,
		       COALESCE(notes, ''), verified_at
		FROM cash_bag_verifications
		WHERE bag_id = $1
	`

	var v models.CashBagVerification
	err := r.db.QueryRow(ctx, query, bagID).Scan(
		&v.ID,
		&v.BagID,
		&v.CountedAmount,
		&v.CountedBy,
		&v.Variance,
		&v.Notes,
		&v.VerifiedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification for %s: %w", bagID, err)
	}

	return &v, nil
}

// GetVerifiedBags returns all verifications joined with their assignments,
// most recently verified first
func (r *CashBagRepository) GetVerifiedBags(ctx context.Context) ([]*models.VerifiedBag, error) {
	query := `
		SELECT ` + qualifyAssignmentColumns("cba") + `,
		       cbv.id, cbv.counted_amount, cbv.counted_by, cbv.variance,
		       COALESCE(cbv.notes, ''), cbv.verified_at
		FROM cash_bag_assignments cba
		INNER JOIN cash_bag_verifications cbv ON cba.bag_id = cbv.bag_id
		ORDER BY cbv.verified_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query verified bags: %w", err)
	}
	defer rows.Close()

	var bags []*models.VerifiedBag
	for rows.Next() {
		var a models.CashBagAssignment
		var v models.CashBagVerification
		err := rows.Scan(
			&a.ID, &a.BagID, &a.AssignmentDate, &a.SourceSystem, &a.SourceIdentifier,
			&a.ExpectedAmount, &a.EmployeeID, &a.POSDeviceID, &a.ShiftID, &a.CreatedAt,
			&v.ID, &v.CountedAmount, &v.CountedBy, &v.Variance, &v.Notes, &v.VerifiedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verified bag: %w", err)
		}
		v.BagID = a.BagID
		bags = append(bags, &models.VerifiedBag{Assignment: &a, Verification: &v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verified bags: %w", err)
	}

	return bags, nil
}

func scanAssignment(row pgx.Row) (*models.CashBagAssignment, error) {
	var a models.CashBagAssignment
	err := row.Scan(
		&a.ID, &a.BagID, &a.AssignmentDate, &a.SourceSystem, &a.SourceIdentifier,
		&a.ExpectedAmount, &a.EmployeeID, &a.POSDeviceID, &a.ShiftID, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAssignments(rows pgx.Rows) ([]*models.CashBagAssignment, error) {
	var assignments []*models.CashBagAssignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return assignments, nil
}

func qualifyAssignmentColumns(alias string) string {
	return fmt.Sprintf(`
		%[1]s.id, %[1]s.bag_id, %[1]s.assignment_date, %[1]s.source_system,
		%[1]s.source_identifier, %[1]s.expected_amount,
		COALESCE(%[1]s.employee_id, ''), COALESCE(%[1]s.pos_device_id, ''),
		COALESCE(%[1]s.shift_id, ''), %[1]s.created_at`, alias)
}
