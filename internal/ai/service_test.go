package ai

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/logger"
	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

// stubGateway returns a canned response or error instead of calling a model.
type stubGateway struct {
	result     map[string]interface{}
	err        error
	calls      int
	lastPrompt string
}

func (s *stubGateway) Complete(_ context.Context, prompt string) (map[string]interface{}, error) {
	s.calls++
	s.lastPrompt = prompt
	return s.result, s.err
}

func mustParseJSON(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func newTestService(t *testing.T, gw Gateway) *Service {
	t.Helper()
	return NewService(gw, logger.NewTestLogger(t))
}

func TestSynthesizeRfp(t *testing.T) {
	gw := &stubGateway{result: mustParseJSON(t, `{
		"title": "Office Equipment Procurement",
		"description": "Laptops and monitors for the new office",
		"budgetAmount": 50000,
		"budgetCurrency": "EUR",
		"deliveryDeadline": "2026-02-15",
		"paymentTerms": "Net 30",
		"items": [
			{"name": "Laptop", "quantity": 20, "specs": "16GB RAM"},
			{"name": "Monitor", "quantity": 15}
		]
	}`)}

	draft, err := newTestService(t, gw).SynthesizeRfp(context.Background(), "need 20 laptops and 15 monitors")
	require.NoError(t, err)

	assert.Equal(t, "Office Equipment Procurement", draft.Title)
	assert.Equal(t, "EUR", draft.BudgetCurrency)
	require.NotNil(t, draft.BudgetAmount)
	assert.Equal(t, 50000.0, *draft.BudgetAmount)
	assert.Equal(t, "2026-02-15", draft.DeliveryDeadline)
	require.Len(t, draft.Items, 2)
	assert.Equal(t, "Laptop", draft.Items[0].Name)
	assert.Equal(t, 20.0, draft.Items[0].Quantity)

	assert.Equal(t, 1, gw.calls)
	assert.Contains(t, gw.lastPrompt, "need 20 laptops and 15 monitors")
}

func TestSynthesizeRfp_DefaultsCurrency(t *testing.T) {
	gw := &stubGateway{result: mustParseJSON(t, `{
		"title": "T", "description": "D",
		"items": [{"name": "Laptop", "quantity": 1}]
	}`)}

	draft, err := newTestService(t, gw).SynthesizeRfp(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "USD", draft.BudgetCurrency)
}

func TestSynthesizeRfp_BlankInput(t *testing.T) {
	gw := &stubGateway{}
	_, err := newTestService(t, gw).SynthesizeRfp(context.Background(), "   \n ")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
	assert.Zero(t, gw.calls)
}

func TestSynthesizeRfp_InvalidResponses(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		errContains string
	}{
		{
			name:        "missing required fields",
			response:    `{"title": "T"}`,
			errContains: "description, items",
		},
		{
			name:        "items not an array",
			response:    `{"title": "T", "description": "D", "items": "none"}`,
			errContains: "items must be an array",
		},
		{
			name:        "item without name",
			response:    `{"title": "T", "description": "D", "items": [{"quantity": 5}]}`,
			errContains: "item 0 must have name and quantity",
		},
		{
			name:        "item without quantity",
			response:    `{"title": "T", "description": "D", "items": [{"name": "Laptop", "quantity": 1}, {"name": "Monitor"}]}`,
			errContains: "item 1 must have name and quantity",
		},
		{
			name:        "wrong field types",
			response:    `{"title": "T", "description": "D", "items": [{"name": "Laptop", "quantity": "twenty"}]}`,
			errContains: "unexpected field types",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &stubGateway{result: mustParseJSON(t, tt.response)}
			_, err := newTestService(t, gw).SynthesizeRfp(context.Background(), "text")
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeGenerationFailed))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestSynthesizeRfp_GatewayErrorWrapped(t *testing.T) {
	gw := &stubGateway{err: apperrors.NewModelUnavailableError(503)}
	_, err := newTestService(t, gw).SynthesizeRfp(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeGenerationFailed))
}

func TestExtractProposal(t *testing.T) {
	gw := &stubGateway{result: mustParseJSON(t, `{
		"items": [{"name": "Laptop", "quantity": 20, "unitPrice": 1200, "totalPrice": 24000}],
		"totalPrice": 24000,
		"deliveryDays": 21,
		"paymentTerms": "Net 30",
		"warranty": "1 year"
	}`)}

	extract, err := newTestService(t, gw).ExtractProposal(context.Background(), testRfp(), "we offer 20 laptops at $1200")
	require.NoError(t, err)

	assert.Equal(t, 24000.0, extract.TotalPrice)
	assert.Equal(t, "USD", extract.Currency)
	require.NotNil(t, extract.DeliveryDays)
	assert.Equal(t, 21, *extract.DeliveryDays)
	require.Len(t, extract.Items, 1)
	require.NotNil(t, extract.Items[0].UnitPrice)
	assert.Equal(t, 1200.0, *extract.Items[0].UnitPrice)

	assert.Contains(t, gw.lastPrompt, "we offer 20 laptops at $1200")
	assert.Contains(t, gw.lastPrompt, "RFP Title: Office Equipment Procurement")
}

func TestExtractProposal_ZeroTotalPriceIsPresent(t *testing.T) {
	gw := &stubGateway{result: mustParseJSON(t, `{"items": [], "totalPrice": 0}`)}
	extract, err := newTestService(t, gw).ExtractProposal(context.Background(), testRfp(), "free of charge")
	require.NoError(t, err)
	assert.Zero(t, extract.TotalPrice)
}

func TestExtractProposal_InvalidInput(t *testing.T) {
	svc := newTestService(t, &stubGateway{})

	_, err := svc.ExtractProposal(context.Background(), nil, "body")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))

	_, err = svc.ExtractProposal(context.Background(), testRfp(), "  ")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
}

func TestExtractProposal_MissingRequiredFields(t *testing.T) {
	gw := &stubGateway{result: mustParseJSON(t, `{"currency": "USD"}`)}
	_, err := newTestService(t, gw).ExtractProposal(context.Background(), testRfp(), "body")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeExtractionFailed))
	assert.Contains(t, err.Error(), "totalPrice, items")
}

func compareProposalsFixture() []models.VendorProposal {
	return []models.VendorProposal{
		{ProposalID: "prop-1", VendorID: "vendor-a", VendorName: "Acme Co", Extract: models.ProposalExtract{TotalPrice: 24000, Currency: "USD"}},
		{ProposalID: "prop-2", VendorID: "vendor-b", VendorName: "Globex", Extract: models.ProposalExtract{TotalPrice: 27500, Currency: "USD"}},
	}
}

func TestCompareProposals(t *testing.T) {
	gw := &stubGateway{result: mustParseJSON(t, `{
		"evaluations": [
			{"vendorIndex": 1, "score": 72, "pros": ["warranty"], "cons": ["price"], "summary": "vendor 2 is pricier than Vendor 1."},
			{"vendorIndex": 0, "score": 85, "pros": ["price"], "cons": ["support"], "summary": "Vendor 1 is cheaper than Vendor 2."}
		],
		"recommendedVendorIndex": 0,
		"overallExplanation": "Vendor 1 offers the best value; VENDOR   2 costs more."
	}`)}

	result, err := newTestService(t, gw).CompareProposals(context.Background(), testRfp(), compareProposalsFixture())
	require.NoError(t, err)

	require.Len(t, result.Evaluations, 2)

	// Identities are resolved from vendorIndex, not from response order.
	first := result.Evaluations[0]
	assert.Equal(t, 1, first.VendorIndex)
	assert.Equal(t, "prop-2", first.ProposalID)
	assert.Equal(t, "vendor-b", first.VendorID)
	assert.Equal(t, "Globex", first.VendorName)

	second := result.Evaluations[1]
	assert.Equal(t, "prop-1", second.ProposalID)
	assert.Equal(t, "Acme Co", second.VendorName)

	// Placeholder substitution is case-insensitive and whitespace-tolerant.
	assert.Equal(t, "Globex is pricier than Acme Co.", first.Summary)
	assert.Equal(t, "Acme Co is cheaper than Globex.", second.Summary)
	assert.Equal(t, "Acme Co offers the best value; Globex costs more.", result.OverallExplanation)

	assert.Equal(t, 0, result.RecommendedVendorIndex)
	assert.Equal(t, "prop-1", result.RecommendedProposalID)

	// The comparison prompt shows vendors positionally, never by ID.
	assert.Contains(t, gw.lastPrompt, "Vendor 1: Acme Co")
	assert.NotContains(t, gw.lastPrompt, "prop-1")
}

func TestCompareProposals_TooFewProposals(t *testing.T) {
	gw := &stubGateway{}
	svc := newTestService(t, gw)

	_, err := svc.CompareProposals(context.Background(), testRfp(), compareProposalsFixture()[:1])
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInsufficientInput))

	_, err = svc.CompareProposals(context.Background(), testRfp(), nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInsufficientInput))

	assert.Zero(t, gw.calls)
}

func TestCompareProposals_StructuralFailures(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		errContains string
	}{
		{
			name:        "missing fields",
			response:    `{"evaluations": []}`,
			errContains: "recommendedVendorIndex, overallExplanation",
		},
		{
			name: "evaluations length mismatch",
			response: `{
				"evaluations": [{"vendorIndex": 0, "score": 80, "summary": "s"}],
				"recommendedVendorIndex": 0,
				"overallExplanation": "e"
			}`,
			errContains: "does not match proposals length",
		},
		{
			name: "recommended index out of range",
			response: `{
				"evaluations": [
					{"vendorIndex": 0, "score": 80, "summary": "s"},
					{"vendorIndex": 1, "score": 70, "summary": "s"}
				],
				"recommendedVendorIndex": 2,
				"overallExplanation": "e"
			}`,
			errContains: "out of range",
		},
		{
			name: "negative recommended index",
			response: `{
				"evaluations": [
					{"vendorIndex": 0, "score": 80, "summary": "s"},
					{"vendorIndex": 1, "score": 70, "summary": "s"}
				],
				"recommendedVendorIndex": -1,
				"overallExplanation": "e"
			}`,
			errContains: "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &stubGateway{result: mustParseJSON(t, tt.response)}
			_, err := newTestService(t, gw).CompareProposals(context.Background(), testRfp(), compareProposalsFixture())
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeComparisonFailed))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestCompareProposals_DropsOutOfRangeEvaluations(t *testing.T) {
	gw := &stubGateway{result: mustParseJSON(t, `{
		"evaluations": [
			{"vendorIndex": 0, "score": 85, "summary": "good"},
			{"vendorIndex": 5, "score": 70, "summary": "ghost vendor"}
		],
		"recommendedVendorIndex": 0,
		"overallExplanation": "e"
	}`)}

	result, err := newTestService(t, gw).CompareProposals(context.Background(), testRfp(), compareProposalsFixture())
	require.NoError(t, err)

	require.Len(t, result.Evaluations, 1)
	assert.Equal(t, "prop-1", result.Evaluations[0].ProposalID)
	assert.Equal(t, "prop-1", result.RecommendedProposalID)
}

func TestCompareProposals_GatewayErrorWrapped(t *testing.T) {
	gw := &stubGateway{err: apperrors.NewModelRateLimitedError(429)}
	_, err := newTestService(t, gw).CompareProposals(context.Background(), testRfp(), compareProposalsFixture())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeComparisonFailed))
}

func TestSubstituteVendorNames_LeavesFreeFormAlone(t *testing.T) {
	names := []string{"Acme Co", "Globex"}
	assert.Equal(t, "The Acme bid wins on price.", substituteVendorNames("The Acme bid wins on price.", names))
	assert.Equal(t, "Acme Co beats vendors overall.", substituteVendorNames("Vendor 1 beats vendors overall.", names))
	// "Vendor 12" must not be clobbered by the "Vendor 1" rule.
	assert.Equal(t, "Vendor 12 is not in this comparison.", substituteVendorNames("Vendor 12 is not in this comparison.", names))
}
