package repositories

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

type EmailRepository struct {
	db *sql.DB
}

func NewEmailRepository(db *sql.DB) *EmailRepository {
	return &EmailRepository{db: db}
}

func (r *EmailRepository) Create(ctx context.Context, m *models.EmailMessage) error {
	m.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_messages (id, direction, rfp_id, vendor_id, from_address,
		                            to_address, subject, body, html_body, message_id,
		                            processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.Direction, nullIfEmpty(m.RfpID), nullIfEmpty(m.VendorID), m.From,
		m.To, m.Subject, m.Body, nullIfEmpty(m.HTMLBody), nullIfEmpty(m.MessageID),
		m.Processed, m.CreatedAt,
	)
	if err != nil {
		return apperrors.NewStoreFailedError("insert email message", err)
	}
	return nil
}

func (r *EmailRepository) ListByRfp(ctx context.Context, rfpID string) ([]*models.EmailMessage, error) {
	rows, err := r.db.QueryContext(ctx, emailSelect+` WHERE rfp_id = $1 ORDER BY created_at`, rfpID)
	if err != nil {
		return nil, apperrors.NewStoreFailedError("list email messages", err)
	}
	defer rows.Close()

	var result []*models.EmailMessage
	for rows.Next() {
		m, err := scanEmailMessage(rows)
		if err != nil {
			return nil, apperrors.NewStoreFailedError("scan email message", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreFailedError("list email messages", err)
	}
	return result, nil
}

func (r *EmailRepository) MarkProcessed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE email_messages SET processed = true WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewStoreFailedError("mark email processed", err)
	}
	return requireOneRow(res, "email message", id)
}

const emailSelect = `
	SELECT id, direction, rfp_id, vendor_id, from_address, to_address,
	       subject, body, html_body, message_id, processed, created_at
	FROM email_messages`

func scanEmailMessage(row rowScanner) (*models.EmailMessage, error) {
	var m models.EmailMessage
	var rfpID, vendorID, htmlBody, messageID sql.NullString

	err := row.Scan(
		&m.ID, &m.Direction, &rfpID, &vendorID, &m.From, &m.To,
		&m.Subject, &m.Body, &htmlBody, &messageID, &m.Processed, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.RfpID = rfpID.String
	m.VendorID = vendorID.String
	m.HTMLBody = htmlBody.String
	m.MessageID = messageID.String
	return &m, nil
}
