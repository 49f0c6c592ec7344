package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"parkops/database"
	"parkops/models"
)

// CardPaymentAuditRepository implements the service.CardPaymentAuditRepository
// interface. Audit records are append-only: re-running an audit for a date
// inserts new rows alongside the old ones.
type CardPaymentAuditRepository struct {
	db *database.DB
}

// NewCardPaymentAuditRepository creates a new card payment audit repository
func NewCardPaymentAuditRepository(db *database.DB) *CardPaymentAuditRepository {
	return &CardPaymentAuditRepository{db: db}
}

// CreateBatch inserts all records within one transaction
func (r *CardPaymentAuditRepository) CreateBatch(ctx context.Context, records []*models.CardPaymentAudit) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO card_payment_audits
		(audit_date, paycloud_amount, loyverse_amount, aronium_amount, pos_total, variance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, record := range records {
			err := tx.QueryRow(ctx, query,
				record.AuditDate,
				record.PaycloudAmount,
				record.LoyverseAmount,
				record.AroniumAmount,
				record.POSTotal,
				record.Variance,
			).Scan(&record.ID, &record.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to create audit record for %s: %w",
					record.AuditDate.Format("2006-01-02"), err)
			}
		}
		return nil
	})
}

// GetByDateRange returns all audit records with audit_date within
// [start, end], ascending by date then insertion order
func (r *CardPaymentAuditRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.CardPaymentAudit, error) {
	query := `
		SELECT id, audit_date, paycloud_amount, loyverse_amount, aronium_amount,
		       pos_total, variance, created_at
		FROM card_payment_audits
		WHERE audit_date BETWEEN $1 AND $2
		ORDER BY audit_date ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []*models.CardPaymentAudit
	for rows.Next() {
		var record models.CardPaymentAudit
		err := rows.Scan(
			&record.ID,
			&record.AuditDate,
			&record.PaycloudAmount,
			&record.LoyverseAmount,
			&record.AroniumAmount,
			&record.POSTotal,
			&record.Variance,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}

	return records, nil
}
