// Package proposal orchestrates vendor proposal ingestion, AI evaluation,
// and cross-proposal comparison.
package proposal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tanayreshamwala/rfp-ai-app/internal/common/database"
	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/logger"
	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

const (
	comparisonCachePrefix = "rfp:comparison:"
	comparisonCacheTTL    = time.Hour
)

type ProposalStore interface {
	Create(ctx context.Context, p *models.Proposal) error
	GetByID(ctx context.Context, id string) (*models.Proposal, error)
	ListByRfp(ctx context.Context, rfpID string) ([]*models.Proposal, error)
	UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) error
	UpdateEvaluation(ctx context.Context, id string, score float64, summary string, pros, cons []string, recommended bool) error
}

type RfpStore interface {
	GetByID(ctx context.Context, id string) (*models.Rfp, error)
}

type VendorStore interface {
	GetByID(ctx context.Context, id string) (*models.Vendor, error)
}

// Extractor turns a vendor email into a structured proposal.
type Extractor interface {
	ExtractProposal(ctx context.Context, rfp *models.Rfp, emailBody string) (*models.ProposalExtract, error)
}

// Comparator scores proposals against each other.
type Comparator interface {
	CompareProposals(ctx context.Context, rfp *models.Rfp, proposals []models.VendorProposal) (*models.ComparisonResult, error)
}

type Service struct {
	proposals  ProposalStore
	rfps       RfpStore
	vendors    VendorStore
	extractor  Extractor
	comparator Comparator
	cache      *database.RedisClient
	logger     logger.Logger
}

// NewService wires the proposal workflow. cache may be nil, in which case
// comparison results are recomputed on every request.
func NewService(proposals ProposalStore, rfps RfpStore, vendors VendorStore, extractor Extractor, comparator Comparator, cache *database.RedisClient, log logger.Logger) *Service {
	return &Service{
		proposals:  proposals,
		rfps:       rfps,
		vendors:    vendors,
		extractor:  extractor,
		comparator: comparator,
		cache:      cache,
		logger: log.WithFields(map[string]interface{}{
			"component": "proposal-service",
		}),
	}
}

// CreateFromEmail extracts a structured proposal from a vendor email body and
// persists it. The duplicate check per (rfp, vendor) is enforced by the store.
func (s *Service) CreateFromEmail(ctx context.Context, rfpID, vendorID, emailBody, messageID string) (*models.Proposal, error) {
	rfp, err := s.rfps.GetByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	vendor, err := s.vendors.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	extract, err := s.extractor.ExtractProposal(ctx, rfp, emailBody)
	if err != nil {
		return nil, err
	}

	p := &models.Proposal{
		ID:             uuid.NewString(),
		RfpID:          rfp.ID,
		VendorID:       vendor.ID,
		VendorName:     vendor.Name,
		RawEmailBody:   emailBody,
		EmailMessageID: messageID,
		Extract:        *extract,
		Status:         models.ProposalStatusPending,
	}
	if err := s.proposals.Create(ctx, p); err != nil {
		return nil, err
	}

	// A new proposal makes any cached comparison stale.
	s.invalidateComparison(ctx, rfp.ID)

	s.logger.Info("proposal created from email", map[string]interface{}{
		"proposalId": p.ID,
		"rfpId":      rfp.ID,
		"vendorId":   vendor.ID,
		"totalPrice": extract.TotalPrice,
	})
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Proposal, error) {
	return s.proposals.GetByID(ctx, id)
}

func (s *Service) ListForRfp(ctx context.Context, rfpID string) ([]*models.Proposal, error) {
	return s.proposals.ListByRfp(ctx, rfpID)
}

var validProposalStatuses = map[models.ProposalStatus]bool{
	models.ProposalStatusPending:  true,
	models.ProposalStatusReviewed: true,
	models.ProposalStatusAccepted: true,
	models.ProposalStatusRejected: true,
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) error {
	if !validProposalStatuses[status] {
		return apperrors.NewInvalidInputError("unknown proposal status: " + string(status))
	}
	return s.proposals.UpdateStatus(ctx, id, status)
}

// CompareForRfp runs the comparison across all proposals of one RFP, stores
// the per-proposal evaluations, and caches the full result.
func (s *Service) CompareForRfp(ctx context.Context, rfpID string) (*models.ComparisonResult, error) {
	if cached := s.cachedComparison(ctx, rfpID); cached != nil {
		return cached, nil
	}

	rfp, err := s.rfps.GetByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	proposals, err := s.proposals.ListByRfp(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if len(proposals) < 2 {
		return nil, apperrors.NewInsufficientInputError("rfp needs at least 2 proposals to compare")
	}

	vendorProposals := make([]models.VendorProposal, len(proposals))
	for i, p := range proposals {
		name := p.VendorName
		if name == "" {
			if vendor, err := s.vendors.GetByID(ctx, p.VendorID); err == nil {
				name = vendor.Name
			}
		}
		vendorProposals[i] = models.VendorProposal{
			ProposalID: p.ID,
			VendorID:   p.VendorID,
			VendorName: name,
			Extract:    p.Extract,
		}
	}

	result, err := s.comparator.CompareProposals(ctx, rfp, vendorProposals)
	if err != nil {
		return nil, err
	}

	for _, eval := range result.Evaluations {
		recommended := eval.ProposalID == result.RecommendedProposalID
		if err := s.proposals.UpdateEvaluation(ctx, eval.ProposalID, eval.Score, eval.Summary, eval.Pros, eval.Cons, recommended); err != nil {
			// The comparison itself succeeded; a failed write must not sink it.
			s.logger.WithError(err).Error("failed to persist proposal evaluation", map[string]interface{}{
				"proposalId": eval.ProposalID,
			})
		}
	}

	s.storeComparison(ctx, rfpID, result)
	return result, nil
}

func (s *Service) cachedComparison(ctx context.Context, rfpID string) *models.ComparisonResult {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, comparisonCachePrefix+rfpID)
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(err).Warn("comparison cache read failed", map[string]interface{}{"rfpId": rfpID})
		}
		return nil
	}
	var result models.ComparisonResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.invalidateComparison(ctx, rfpID)
		return nil
	}
	return &result
}

func (s *Service) storeComparison(ctx context.Context, rfpID string, result *models.ComparisonResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, comparisonCachePrefix+rfpID, raw, comparisonCacheTTL); err != nil {
		s.logger.WithError(err).Warn("comparison cache write failed", map[string]interface{}{"rfpId": rfpID})
	}
}

func (s *Service) invalidateComparison(ctx context.Context, rfpID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, comparisonCachePrefix+rfpID); err != nil {
		s.logger.WithError(err).Warn("comparison cache invalidation failed", map[string]interface{}{"rfpId": rfpID})
	}
}
