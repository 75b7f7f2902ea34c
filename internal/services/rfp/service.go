// Package rfp orchestrates RFP lifecycle operations on top of the synthesis
// pipeline and the Postgres store.
package rfp

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/logger"
	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

// Store is the persistence surface this service needs.
type Store interface {
	Create(ctx context.Context, rfp *models.Rfp) error
	GetByID(ctx context.Context, id string) (*models.Rfp, error)
	List(ctx context.Context, status models.RfpStatus) ([]*models.Rfp, error)
	Update(ctx context.Context, rfp *models.Rfp) error
	UpdateStatus(ctx context.Context, id string, status models.RfpStatus) error
	Delete(ctx context.Context, id string) error
}

// Synthesizer produces a structured draft from free text.
type Synthesizer interface {
	SynthesizeRfp(ctx context.Context, userText string) (*models.RfpDraft, error)
}

// validTransitions is the RFP status machine. Closed and cancelled are terminal.
var validTransitions = map[models.RfpStatus][]models.RfpStatus{
	models.RfpStatusDraft: {models.RfpStatusSent, models.RfpStatusCancelled},
	models.RfpStatusSent:  {models.RfpStatusClosed, models.RfpStatusCancelled},
}

type Service struct {
	store       Store
	synthesizer Synthesizer
	logger      logger.Logger
}

func NewService(store Store, synthesizer Synthesizer, log logger.Logger) *Service {
	return &Service{
		store:       store,
		synthesizer: synthesizer,
		logger: log.WithFields(map[string]interface{}{
			"component": "rfp-service",
		}),
	}
}

// CreateFromText synthesizes a draft from the user's free-text request and
// persists it with status draft.
func (s *Service) CreateFromText(ctx context.Context, userText string) (*models.Rfp, error) {
	draft, err := s.synthesizer.SynthesizeRfp(ctx, userText)
	if err != nil {
		return nil, err
	}

	rfp := draftToRfp(draft)
	rfp.ID = uuid.NewString()
	rfp.Status = models.RfpStatusDraft

	if err := s.store.Create(ctx, rfp); err != nil {
		return nil, err
	}

	s.logger.Info("rfp created from text", map[string]interface{}{
		"rfpId": rfp.ID,
		"title": rfp.Title,
	})
	return rfp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Rfp, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status models.RfpStatus) ([]*models.Rfp, error) {
	return s.store.List(ctx, status)
}

// Update replaces the mutable fields of a draft RFP. Sent and terminal RFPs
// are immutable apart from their status.
func (s *Service) Update(ctx context.Context, rfp *models.Rfp) (*models.Rfp, error) {
	existing, err := s.store.GetByID(ctx, rfp.ID)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.RfpStatusDraft {
		return nil, apperrors.NewInvalidInputError("only draft RFPs can be edited")
	}

	rfp.Status = existing.Status
	rfp.SentToVendors = existing.SentToVendors
	rfp.CreatedAt = existing.CreatedAt
	if err := s.store.Update(ctx, rfp); err != nil {
		return nil, err
	}
	return rfp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status == models.RfpStatusSent {
		return apperrors.NewInvalidInputError("sent RFPs cannot be deleted, cancel them instead")
	}
	return s.store.Delete(ctx, id)
}

// UpdateStatus applies one transition of the status machine.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.RfpStatus) (*models.Rfp, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(existing.Status, status) {
		return nil, apperrors.NewInvalidInputError(
			"cannot transition rfp from " + string(existing.Status) + " to " + string(status))
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	existing.Status = status
	return existing, nil
}

func transitionAllowed(from, to models.RfpStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func draftToRfp(draft *models.RfpDraft) *models.Rfp {
	rfp := &models.Rfp{
		Title:          draft.Title,
		Description:    draft.Description,
		BudgetAmount:   draft.BudgetAmount,
		BudgetCurrency: draft.BudgetCurrency,
		PaymentTerms:   draft.PaymentTerms,
		WarrantyTerms:  draft.WarrantyTerms,
		Items:          draft.Items,
	}
	if draft.DeliveryDeadline != "" {
		// A malformed model date degrades to no deadline rather than failing
		// the whole draft.
		if deadline, err := time.Parse("2006-01-02", draft.DeliveryDeadline); err == nil {
			rfp.DeliveryDeadline = &deadline
		}
	}
	return rfp
}
