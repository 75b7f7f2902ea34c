// Package repositories holds the Postgres persistence layer. Line items and
// other document-shaped fields live in JSONB columns; scalar fields that the
// queries filter on are real columns.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

type RfpRepository struct {
	db *sql.DB
}

func NewRfpRepository(db *sql.DB) *RfpRepository {
	return &RfpRepository{db: db}
}

func (r *RfpRepository) Create(ctx context.Context, rfp *models.Rfp) error {
	items, err := json.Marshal(rfp.Items)
	if err != nil {
		return apperrors.NewStoreFailedError("encode rfp items", err)
	}
	sentTo, err := json.Marshal(rfp.SentToVendors)
	if err != nil {
		return apperrors.NewStoreFailedError("encode sent_to_vendors", err)
	}

	now := time.Now().UTC()
	rfp.CreatedAt = now
	rfp.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO rfps (id, title, description, budget_amount, budget_currency,
		                  delivery_deadline, payment_terms, warranty_terms,
		                  items, status, sent_to_vendors, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rfp.ID, rfp.Title, rfp.Description, rfp.BudgetAmount, rfp.BudgetCurrency,
		rfp.DeliveryDeadline, nullIfEmpty(rfp.PaymentTerms), nullIfEmpty(rfp.WarrantyTerms),
		items, rfp.Status, sentTo, rfp.CreatedAt, rfp.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewStoreFailedError("insert rfp", err)
	}
	return nil
}

func (r *RfpRepository) GetByID(ctx context.Context, id string) (*models.Rfp, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, budget_amount, budget_currency,
		       delivery_deadline, payment_terms, warranty_terms,
		       items, status, sent_to_vendors, created_at, updated_at
		FROM rfps
		WHERE id = $1`, id)

	rfp, err := scanRfp(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewRecordNotFoundError("rfp", id)
	}
	if err != nil {
		return nil, apperrors.NewStoreFailedError("select rfp", err)
	}
	return rfp, nil
}

// List returns RFPs newest first, optionally filtered by status.
func (r *RfpRepository) List(ctx context.Context, status models.RfpStatus) ([]*models.Rfp, error) {
	query := `
		SELECT id, title, description, budget_amount, budget_currency,
		       delivery_deadline, payment_terms, warranty_terms,
		       items, status, sent_to_vendors, created_at, updated_at
		FROM rfps`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreFailedError("list rfps", err)
	}
	defer rows.Close()

	var result []*models.Rfp
	for rows.Next() {
		rfp, err := scanRfp(rows)
		if err != nil {
			return nil, apperrors.NewStoreFailedError("scan rfp", err)
		}
		result = append(result, rfp)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreFailedError("list rfps", err)
	}
	return result, nil
}

func (r *RfpRepository) Update(ctx context.Context, rfp *models.Rfp) error {
	items, err := json.Marshal(rfp.Items)
	if err != nil {
		return apperrors.NewStoreFailedError("encode rfp items", err)
	}
	sentTo, err := json.Marshal(rfp.SentToVendors)
	if err != nil {
		return apperrors.NewStoreFailedError("encode sent_to_vendors", err)
	}

	rfp.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE rfps
		SET title = $2, description = $3, budget_amount = $4, budget_currency = $5,
		    delivery_deadline = $6, payment_terms = $7, warranty_terms = $8,
		    items = $9, status = $10, sent_to_vendors = $11, updated_at = $12
		WHERE id = $1`,
		rfp.ID, rfp.Title, rfp.Description, rfp.BudgetAmount, rfp.BudgetCurrency,
		rfp.DeliveryDeadline, nullIfEmpty(rfp.PaymentTerms), nullIfEmpty(rfp.WarrantyTerms),
		items, rfp.Status, sentTo, rfp.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewStoreFailedError("update rfp", err)
	}
	return requireOneRow(res, "rfp", rfp.ID)
}

func (r *RfpRepository) UpdateStatus(ctx context.Context, id string, status models.RfpStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rfps SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC(),
	)
	if err != nil {
		return apperrors.NewStoreFailedError("update rfp status", err)
	}
	return requireOneRow(res, "rfp", id)
}

func (r *RfpRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rfps WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewStoreFailedError("delete rfp", err)
	}
	return requireOneRow(res, "rfp", id)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRfp(row rowScanner) (*models.Rfp, error) {
	var rfp models.Rfp
	var items, sentTo []byte
	var paymentTerms, warrantyTerms sql.NullString

	err := row.Scan(
		&rfp.ID, &rfp.Title, &rfp.Description, &rfp.BudgetAmount, &rfp.BudgetCurrency,
		&rfp.DeliveryDeadline, &paymentTerms, &warrantyTerms,
		&items, &rfp.Status, &sentTo, &rfp.CreatedAt, &rfp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rfp.PaymentTerms = paymentTerms.String
	rfp.WarrantyTerms = warrantyTerms.String
	if len(items) > 0 {
		if err := json.Unmarshal(items, &rfp.Items); err != nil {
			return nil, err
		}
	}
	if len(sentTo) > 0 {
		if err := json.Unmarshal(sentTo, &rfp.SentToVendors); err != nil {
			return nil, err
		}
	}
	return &rfp, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func requireOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.NewStoreFailedError("rows affected", err)
	}
	if n == 0 {
		return apperrors.NewRecordNotFoundError(kind, id)
	}
	return nil
}
