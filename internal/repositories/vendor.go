package repositories

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

type VendorRepository struct {
	db *sql.DB
}

func NewVendorRepository(db *sql.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	now := time.Now().UTC()
	vendor.CreatedAt = now
	vendor.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vendors (id, name, email, category, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		vendor.ID, vendor.Name, vendor.Email, nullIfEmpty(vendor.Category),
		vendor.IsActive, vendor.CreatedAt, vendor.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewStoreFailedError("insert vendor", err)
	}
	return nil
}

func (r *VendorRepository) GetByID(ctx context.Context, id string) (*models.Vendor, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail resolves the sender of an inbound proposal email.
func (r *VendorRepository) GetByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	return r.getBy(ctx, "email", email)
}

func (r *VendorRepository) getBy(ctx context.Context, column, value string) (*models.Vendor, error) {
	var v models.Vendor
	var category sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, category, is_active, created_at, updated_at
		FROM vendors
		WHERE `+column+` = $1`, value).Scan(
		&v.ID, &v.Name, &v.Email, &category, &v.IsActive, &v.CreatedAt, &v.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewRecordNotFoundError("vendor", value)
	}
	if err != nil {
		return nil, apperrors.NewStoreFailedError("select vendor", err)
	}
	v.Category = category.String
	return &v, nil
}

func (r *VendorRepository) ListActive(ctx context.Context) ([]*models.Vendor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, category, is_active, created_at, updated_at
		FROM vendors
		WHERE is_active = true
		ORDER BY name`)
	if err != nil {
		return nil, apperrors.NewStoreFailedError("list vendors", err)
	}
	defer rows.Close()

	var result []*models.Vendor
	for rows.Next() {
		var v models.Vendor
		var category sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &category, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, apperrors.NewStoreFailedError("scan vendor", err)
		}
		v.Category = category.String
		result = append(result, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreFailedError("list vendors", err)
	}
	return result, nil
}
