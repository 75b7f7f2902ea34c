package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

// uniqueViolation is the Postgres error code raised by the one-proposal-per
// -vendor-per-rfp constraint.
const uniqueViolation = "23505"

type ProposalRepository struct {
	db *sql.DB
}

func NewProposalRepository(db *sql.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) Create(ctx context.Context, p *models.Proposal) error {
	parsed, err := json.Marshal(p.Extract)
	if err != nil {
		return apperrors.NewStoreFailedError("encode proposal extract", err)
	}
	pros, err := json.Marshal(p.AIPros)
	if err != nil {
		return apperrors.NewStoreFailedError("encode proposal pros", err)
	}
	cons, err := json.Marshal(p.AICons)
	if err != nil {
		return apperrors.NewStoreFailedError("encode proposal cons", err)
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO proposals (id, rfp_id, vendor_id, vendor_name, raw_email_body,
		                       email_message_id, parsed, status, ai_score, ai_summary,
		                       ai_pros, ai_cons, ai_recommended, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.RfpID, p.VendorID, nullIfEmpty(p.VendorName), nullIfEmpty(p.RawEmailBody),
		nullIfEmpty(p.EmailMessageID), parsed, p.Status, p.AIScore, nullIfEmpty(p.AISummary),
		pros, cons, p.AIRecommended, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return apperrors.NewDuplicateProposalError(p.RfpID, p.VendorID)
		}
		return apperrors.NewStoreFailedError("insert proposal", err)
	}
	return nil
}

func (r *ProposalRepository) GetByID(ctx context.Context, id string) (*models.Proposal, error) {
	row := r.db.QueryRowContext(ctx, proposalSelect+` WHERE id = $1`, id)
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewRecordNotFoundError("proposal", id)
	}
	if err != nil {
		return nil, apperrors.NewStoreFailedError("select proposal", err)
	}
	return p, nil
}

// ListByRfp returns all proposals for one RFP, oldest first so comparison
// indices stay stable across calls.
func (r *ProposalRepository) ListByRfp(ctx context.Context, rfpID string) ([]*models.Proposal, error) {
	rows, err := r.db.QueryContext(ctx, proposalSelect+` WHERE rfp_id = $1 ORDER BY created_at`, rfpID)
	if err != nil {
		return nil, apperrors.NewStoreFailedError("list proposals", err)
	}
	defer rows.Close()

	var result []*models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, apperrors.NewStoreFailedError("scan proposal", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreFailedError("list proposals", err)
	}
	return result, nil
}

func (r *ProposalRepository) UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE proposals SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC(),
	)
	if err != nil {
		return apperrors.NewStoreFailedError("update proposal status", err)
	}
	return requireOneRow(res, "proposal", id)
}

// UpdateEvaluation stores the comparison outcome for one proposal.
func (r *ProposalRepository) UpdateEvaluation(ctx context.Context, id string, score float64, summary string, pros, cons []string, recommended bool) error {
	prosJSON, err := json.Marshal(pros)
	if err != nil {
		return apperrors.NewStoreFailedError("encode proposal pros", err)
	}
	consJSON, err := json.Marshal(cons)
	if err != nil {
		return apperrors.NewStoreFailedError("encode proposal cons", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE proposals
		SET ai_score = $2, ai_summary = $3, ai_pros = $4, ai_cons = $5,
		    ai_recommended = $6, status = $7, updated_at = $8
		WHERE id = $1`,
		id, score, summary, prosJSON, consJSON, recommended,
		models.ProposalStatusReviewed, time.Now().UTC(),
	)
	if err != nil {
		return apperrors.NewStoreFailedError("update proposal evaluation", err)
	}
	return requireOneRow(res, "proposal", id)
}

const proposalSelect = `
	SELECT id, rfp_id, vendor_id, vendor_name, raw_email_body, email_message_id,
	       parsed, status, ai_score, ai_summary, ai_pros, ai_cons, ai_recommended,
	       created_at, updated_at
	FROM proposals`

func scanProposal(row rowScanner) (*models.Proposal, error) {
	var p models.Proposal
	var parsed, pros, cons []byte
	var vendorName, rawBody, messageID, summary sql.NullString

	err := row.Scan(
		&p.ID, &p.RfpID, &p.VendorID, &vendorName, &rawBody, &messageID,
		&parsed, &p.Status, &p.AIScore, &summary, &pros, &cons, &p.AIRecommended,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.VendorName = vendorName.String
	p.RawEmailBody = rawBody.String
	p.EmailMessageID = messageID.String
	p.AISummary = summary.String
	if len(parsed) > 0 {
		if err := json.Unmarshal(parsed, &p.Extract); err != nil {
			return nil, err
		}
	}
	if len(pros) > 0 {
		if err := json.Unmarshal(pros, &p.AIPros); err != nil {
			return nil, err
		}
	}
	if len(cons) > 0 {
		if err := json.Unmarshal(cons, &p.AICons); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
