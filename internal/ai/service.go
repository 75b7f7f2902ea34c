package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/logger"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/metrics"
	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

const (
	opSynthesizeRfp    = "synthesize_rfp"
	opExtractProposal  = "extract_proposal"
	opCompareProposals = "compare_proposals"
)

// Service exposes the three pipeline entry points. All retries happen inside
// the gateway; failures returned here are final.
type Service struct {
	gateway Gateway
	logger  logger.Logger
}

func NewService(gateway Gateway, log logger.Logger) *Service {
	return &Service{
		gateway: gateway,
		logger: log.WithFields(map[string]interface{}{
			"component": "ai-service",
		}),
	}
}

// SynthesizeRfp turns a natural language procurement request into a
// structured RFP draft. The draft is either fully valid or not returned:
// required fields and per-item name/quantity are enforced after the call.
func (s *Service) SynthesizeRfp(ctx context.Context, userText string) (*models.RfpDraft, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, apperrors.NewInvalidInputError("user text is required and must be non-empty")
	}

	start := time.Now()
	result, err := s.gateway.Complete(ctx, GenerateRfpPrompt(userText))
	if err != nil {
		metrics.ModelCallsFailed.WithLabelValues(opSynthesizeRfp, string(apperrors.CodeOf(err))).Inc()
		return nil, apperrors.NewGenerationFailedError("model call failed: " + err.Error())
	}

	if v := ValidateRequiredFields(result, []string{"title", "description", "items"}); !v.Valid {
		metrics.ModelCallsFailed.WithLabelValues(opSynthesizeRfp, string(apperrors.ErrCodeGenerationFailed)).Inc()
		return nil, apperrors.NewGenerationFailedError("missing required fields in AI response: " + strings.Join(v.MissingFields, ", "))
	}
	if _, ok := result["items"].([]interface{}); !ok {
		return nil, apperrors.NewGenerationFailedError("items must be an array")
	}

	var draft models.RfpDraft
	if err := decodeInto(result, &draft); err != nil {
		return nil, apperrors.NewGenerationFailedError("unexpected field types in AI response: " + err.Error())
	}

	for i, item := range draft.Items {
		if strings.TrimSpace(item.Name) == "" || item.Quantity == 0 {
			return nil, apperrors.NewGenerationFailedError(fmt.Sprintf("item %d must have name and quantity", i))
		}
	}
	if draft.BudgetCurrency == "" {
		draft.BudgetCurrency = "USD"
	}

	metrics.ModelCallsCompleted.WithLabelValues(opSynthesizeRfp).Inc()
	metrics.ModelCallDuration.WithLabelValues(opSynthesizeRfp).Observe(time.Since(start).Seconds())

	s.logger.Info("rfp draft synthesized", map[string]interface{}{
		"title":     draft.Title,
		"itemCount": len(draft.Items),
	})

	return &draft, nil
}

// ExtractProposal turns one vendor email body into a structured proposal
// anchored on the originating RFP. Item matching against the RFP is
// best-effort; only totalPrice and items are enforced.
func (s *Service) ExtractProposal(ctx context.Context, rfp *models.Rfp, emailBody string) (*models.ProposalExtract, error) {
	if rfp == nil {
		return nil, apperrors.NewInvalidInputError("rfp is required")
	}
	if strings.TrimSpace(emailBody) == "" {
		return nil, apperrors.NewInvalidInputError("email body must be non-empty")
	}

	start := time.Now()
	result, err := s.gateway.Complete(ctx, ExtractProposalPrompt(rfp, emailBody))
	if err != nil {
		metrics.ModelCallsFailed.WithLabelValues(opExtractProposal, string(apperrors.CodeOf(err))).Inc()
		return nil, apperrors.NewExtractionFailedError("model call failed: " + err.Error())
	}

	if v := ValidateRequiredFields(result, []string{"totalPrice", "items"}); !v.Valid {
		metrics.ModelCallsFailed.WithLabelValues(opExtractProposal, string(apperrors.ErrCodeExtractionFailed)).Inc()
		return nil, apperrors.NewExtractionFailedError("missing required fields in AI response: " + strings.Join(v.MissingFields, ", "))
	}
	if _, ok := result["items"].([]interface{}); !ok {
		return nil, apperrors.NewExtractionFailedError("items must be an array")
	}

	var extract models.ProposalExtract
	if err := decodeInto(result, &extract); err != nil {
		return nil, apperrors.NewExtractionFailedError("unexpected field types in AI response: " + err.Error())
	}
	if extract.Currency == "" {
		extract.Currency = "USD"
	}

	metrics.ModelCallsCompleted.WithLabelValues(opExtractProposal).Inc()
	metrics.ModelCallDuration.WithLabelValues(opExtractProposal).Observe(time.Since(start).Seconds())

	s.logger.Info("proposal extracted", map[string]interface{}{
		"rfpId":      rfp.ID,
		"itemCount":  len(extract.Items),
		"totalPrice": extract.TotalPrice,
	})

	return &extract, nil
}

// comparisonResponse is the shape the comparison prompt asks the model for.
type comparisonResponse struct {
	Evaluations            []models.Evaluation `json:"evaluations"`
	RecommendedVendorIndex int                 `json:"recommendedVendorIndex"`
	OverallExplanation     string              `json:"overallExplanation"`
}

// CompareProposals scores N proposals against each other and maps the
// model-assigned vendor indices back onto real vendor identities. The model
// never sees persistent identifiers; re-identification is purely positional.
func (s *Service) CompareProposals(ctx context.Context, rfp *models.Rfp, proposals []models.VendorProposal) (*models.ComparisonResult, error) {
	if rfp == nil {
		return nil, apperrors.NewInvalidInputError("rfp is required")
	}
	if len(proposals) < 2 {
		return nil, apperrors.NewInsufficientInputError(fmt.Sprintf("got %d proposals", len(proposals)))
	}

	start := time.Now()
	result, err := s.gateway.Complete(ctx, CompareProposalsPrompt(rfp, proposals))
	if err != nil {
		metrics.ModelCallsFailed.WithLabelValues(opCompareProposals, string(apperrors.CodeOf(err))).Inc()
		return nil, apperrors.NewComparisonFailedError("model call failed: " + err.Error())
	}

	if v := ValidateRequiredFields(result, []string{"evaluations", "recommendedVendorIndex", "overallExplanation"}); !v.Valid {
		metrics.ModelCallsFailed.WithLabelValues(opCompareProposals, string(apperrors.ErrCodeComparisonFailed)).Inc()
		return nil, apperrors.NewComparisonFailedError("missing required fields in AI response: " + strings.Join(v.MissingFields, ", "))
	}

	var parsed comparisonResponse
	if err := decodeInto(result, &parsed); err != nil {
		return nil, apperrors.NewComparisonFailedError("unexpected field types in AI response: " + err.Error())
	}

	if len(parsed.Evaluations) != len(proposals) {
		return nil, apperrors.NewComparisonFailedError(fmt.Sprintf(
			"evaluations length %d does not match proposals length %d", len(parsed.Evaluations), len(proposals)))
	}
	if parsed.RecommendedVendorIndex < 0 || parsed.RecommendedVendorIndex >= len(proposals) {
		return nil, apperrors.NewComparisonFailedError(fmt.Sprintf(
			"recommended vendor index %d is out of range", parsed.RecommendedVendorIndex))
	}

	// Bidirectional index map, built once from positional order.
	names := make([]string, len(proposals))
	for i, p := range proposals {
		names[i] = p.VendorName
	}

	evaluations := make([]models.Evaluation, 0, len(parsed.Evaluations))
	for _, eval := range parsed.Evaluations {
		if eval.VendorIndex < 0 || eval.VendorIndex >= len(proposals) {
			// Malformed entry: drop it and keep the rest of the result.
			s.logger.Warn("dropping evaluation with out-of-range vendor index", map[string]interface{}{
				"vendorIndex": eval.VendorIndex,
				"proposals":   len(proposals),
			})
			continue
		}
		p := proposals[eval.VendorIndex]
		eval.ProposalID = p.ProposalID
		eval.VendorID = p.VendorID
		eval.VendorName = p.VendorName
		eval.Summary = substituteVendorNames(eval.Summary, names)
		evaluations = append(evaluations, eval)
	}

	metrics.ModelCallsCompleted.WithLabelValues(opCompareProposals).Inc()
	metrics.ModelCallDuration.WithLabelValues(opCompareProposals).Observe(time.Since(start).Seconds())

	if len(evaluations) < len(proposals) {
		s.logger.Warn("comparison result is degraded", map[string]interface{}{
			"expected": len(proposals),
			"kept":     len(evaluations),
		})
	}

	return &models.ComparisonResult{
		Evaluations:            evaluations,
		RecommendedVendorIndex: parsed.RecommendedVendorIndex,
		RecommendedProposalID:  proposals[parsed.RecommendedVendorIndex].ProposalID,
		OverallExplanation:     substituteVendorNames(parsed.OverallExplanation, names),
	}, nil
}

// substituteVendorNames replaces "Vendor N" placeholders with the display
// name at position N-1. Case-insensitive and whitespace-tolerant between the
// two tokens; free-form phrasing the model chose instead is left alone.
func substituteVendorNames(text string, names []string) string {
	if text == "" {
		return text
	}
	for i, name := range names {
		if name == "" {
			continue
		}
		re := regexp.MustCompile(fmt.Sprintf(`(?i)\bvendor\s+%d\b`, i+1))
		text = re.ReplaceAllString(text, name)
	}
	return text
}

func decodeInto(data map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
