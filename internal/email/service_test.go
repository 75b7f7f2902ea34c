package email

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanayreshamwala/rfp-ai-app/internal/common/config"
	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/logger"
	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

type fakeSender struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSender) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, input)
	return &ses.SendEmailOutput{MessageId: aws.String("ses-msg-1")}, nil
}

type fakeRfpStore struct {
	rfp     *models.Rfp
	updated *models.Rfp
}

func (s *fakeRfpStore) GetByID(_ context.Context, id string) (*models.Rfp, error) {
	if s.rfp == nil || s.rfp.ID != id {
		return nil, apperrors.NewRecordNotFoundError("rfp", id)
	}
	return s.rfp, nil
}

func (s *fakeRfpStore) Update(_ context.Context, rfp *models.Rfp) error {
	s.updated = rfp
	return nil
}

func (s *fakeRfpStore) UpdateStatus(_ context.Context, _ string, _ models.RfpStatus) error {
	return nil
}

type fakeVendorStore struct {
	byID    map[string]*models.Vendor
	byEmail map[string]*models.Vendor
}

func (s *fakeVendorStore) GetByID(_ context.Context, id string) (*models.Vendor, error) {
	if v, ok := s.byID[id]; ok {
		return v, nil
	}
	return nil, apperrors.NewRecordNotFoundError("vendor", id)
}

func (s *fakeVendorStore) GetByEmail(_ context.Context, email string) (*models.Vendor, error) {
	if v, ok := s.byEmail[email]; ok {
		return v, nil
	}
	return nil, apperrors.NewRecordNotFoundError("vendor", email)
}

type fakeMessageStore struct {
	created   []*models.EmailMessage
	processed []string
}

func (s *fakeMessageStore) Create(_ context.Context, m *models.EmailMessage) error {
	s.created = append(s.created, m)
	return nil
}

func (s *fakeMessageStore) MarkProcessed(_ context.Context, id string) error {
	s.processed = append(s.processed, id)
	return nil
}

type fakeProposalCreator struct {
	proposal *models.Proposal
	err      error
	calls    int
	rfpID    string
	vendorID string
	body     string
}

func (f *fakeProposalCreator) CreateFromEmail(_ context.Context, rfpID, vendorID, body, _ string) (*models.Proposal, error) {
	f.calls++
	f.rfpID = rfpID
	f.vendorID = vendorID
	f.body = body
	return f.proposal, f.err
}

const testRfpID = "1f4e9a36-9c1d-4a43-8f2f-0f6f7f1c2d3e"

func testEmailService(t *testing.T, sender Sender, rfps RfpStore, vendors VendorStore, messages MessageStore, proposals ProposalCreator) *Service {
	t.Helper()
	cfg := config.EmailConfig{FromAddress: "rfp@procurement.example.com", ReplyTo: "inbound@procurement.example.com"}
	return NewService(sender, rfps, vendors, messages, proposals, cfg, logger.NewTestLogger(t))
}

func draftRfp() *models.Rfp {
	budget := 50000.0
	return &models.Rfp{
		ID:             testRfpID,
		Title:          "Office Equipment Procurement",
		Description:    "Laptops and monitors",
		BudgetAmount:   &budget,
		BudgetCurrency: "USD",
		Status:         models.RfpStatusDraft,
		Items: []models.RfpItem{
			{Name: "Laptop", Quantity: 20, Specs: "16GB RAM"},
			{Name: "Monitor", Quantity: 15},
		},
	}
}

func TestSendRfp(t *testing.T) {
	sender := &fakeSender{}
	rfps := &fakeRfpStore{rfp: draftRfp()}
	vendors := &fakeVendorStore{byID: map[string]*models.Vendor{
		"vendor-a": {ID: "vendor-a", Name: "Acme Co", Email: "sales@acme.example.com"},
		"vendor-b": {ID: "vendor-b", Name: "Globex", Email: "bids@globex.example.com"},
	}}
	messages := &fakeMessageStore{}

	svc := testEmailService(t, sender, rfps, vendors, messages, &fakeProposalCreator{})

	rfp, err := svc.SendRfp(context.Background(), testRfpID, []string{"vendor-a", "vendor-b"})
	require.NoError(t, err)

	assert.Equal(t, models.RfpStatusSent, rfp.Status)
	require.Len(t, rfp.SentToVendors, 2)
	assert.Equal(t, "vendor-a", rfp.SentToVendors[0].VendorID)
	require.Len(t, sender.inputs, 2)

	subject := *sender.inputs[0].Message.Subject.Data
	assert.Contains(t, subject, "Office Equipment Procurement")
	assert.Contains(t, subject, "[ID: "+testRfpID+"]")

	body := *sender.inputs[0].Message.Body.Text.Data
	assert.Contains(t, body, "1. Laptop x20 (16GB RAM)")
	assert.Contains(t, body, "2. Monitor x15")
	assert.Contains(t, body, "Budget: USD 50000")
	assert.Contains(t, body, "Keep the subject line intact")

	require.Len(t, messages.created, 2)
	assert.Equal(t, models.EmailDirectionSent, messages.created[0].Direction)
	assert.Equal(t, "ses-msg-1", messages.created[0].MessageID)
	assert.Same(t, rfp, rfps.updated)
}

func TestSendRfp_SkipsUnknownVendor(t *testing.T) {
	sender := &fakeSender{}
	rfps := &fakeRfpStore{rfp: draftRfp()}
	vendors := &fakeVendorStore{byID: map[string]*models.Vendor{
		"vendor-a": {ID: "vendor-a", Name: "Acme Co", Email: "sales@acme.example.com"},
	}}

	svc := testEmailService(t, sender, rfps, vendors, &fakeMessageStore{}, &fakeProposalCreator{})

	rfp, err := svc.SendRfp(context.Background(), testRfpID, []string{"vendor-a", "ghost"})
	require.NoError(t, err)
	assert.Len(t, rfp.SentToVendors, 1)
	assert.Len(t, sender.inputs, 1)
}

func TestSendRfp_AllDeliveriesFail(t *testing.T) {
	sender := &fakeSender{err: assert.AnError}
	rfps := &fakeRfpStore{rfp: draftRfp()}
	vendors := &fakeVendorStore{byID: map[string]*models.Vendor{
		"vendor-a": {ID: "vendor-a", Email: "sales@acme.example.com"},
	}}

	svc := testEmailService(t, sender, rfps, vendors, &fakeMessageStore{}, &fakeProposalCreator{})

	_, err := svc.SendRfp(context.Background(), testRfpID, []string{"vendor-a"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmailSendFailed))
	assert.Nil(t, rfps.updated)
}

func TestSendRfp_ClosedRfpRefused(t *testing.T) {
	rfp := draftRfp()
	rfp.Status = models.RfpStatusClosed
	svc := testEmailService(t, &fakeSender{}, &fakeRfpStore{rfp: rfp}, &fakeVendorStore{}, &fakeMessageStore{}, &fakeProposalCreator{})

	_, err := svc.SendRfp(context.Background(), testRfpID, []string{"vendor-a"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidInput))
}

func inboundPayload(subject string) map[string]interface{} {
	return map[string]interface{}{
		"from":      "Acme Sales <sales@acme.example.com>",
		"to":        "inbound@procurement.example.com",
		"subject":   subject,
		"text":      "We can supply 20 laptops at $1200 each.",
		"messageId": "provider-msg-9",
	}
}

func TestProcessInbound_CreatesProposal(t *testing.T) {
	vendors := &fakeVendorStore{byEmail: map[string]*models.Vendor{
		"sales@acme.example.com": {ID: "vendor-a", Name: "Acme Co", Email: "sales@acme.example.com"},
	}}
	messages := &fakeMessageStore{}
	creator := &fakeProposalCreator{proposal: &models.Proposal{ID: "prop-1"}}

	svc := testEmailService(t, &fakeSender{}, &fakeRfpStore{}, vendors, messages, creator)

	result, err := svc.ProcessInbound(context.Background(), inboundPayload("Re: RFP: Office Equipment [ID: "+testRfpID+"]"))
	require.NoError(t, err)

	require.NotNil(t, result.Proposal)
	assert.Equal(t, "prop-1", result.Proposal.ID)
	assert.Equal(t, testRfpID, creator.rfpID)
	assert.Equal(t, "vendor-a", creator.vendorID)
	assert.Equal(t, "We can supply 20 laptops at $1200 each.", creator.body)

	require.Len(t, messages.created, 1)
	assert.Equal(t, models.EmailDirectionReceived, messages.created[0].Direction)
	assert.True(t, result.Email.Processed)
	assert.Equal(t, []string{result.Email.ID}, messages.processed)
}

func TestProcessInbound_InvalidPayload(t *testing.T) {
	svc := testEmailService(t, &fakeSender{}, &fakeRfpStore{}, &fakeVendorStore{}, &fakeMessageStore{}, &fakeProposalCreator{})

	_, err := svc.ProcessInbound(context.Background(), map[string]interface{}{"subject": "no envelope"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeWebhookInvalid))
}

func TestProcessInbound_UnknownSenderStillRecorded(t *testing.T) {
	messages := &fakeMessageStore{}
	creator := &fakeProposalCreator{}
	svc := testEmailService(t, &fakeSender{}, &fakeRfpStore{}, &fakeVendorStore{}, messages, creator)

	result, err := svc.ProcessInbound(context.Background(), inboundPayload("Re: RFP [ID: "+testRfpID+"]"))
	require.NoError(t, err)

	assert.Nil(t, result.Proposal)
	assert.Zero(t, creator.calls)
	require.Len(t, messages.created, 1)
	assert.False(t, messages.created[0].Processed)
}

func TestProcessInbound_ExtractionFailureIsNonFatal(t *testing.T) {
	vendors := &fakeVendorStore{byEmail: map[string]*models.Vendor{
		"sales@acme.example.com": {ID: "vendor-a"},
	}}
	messages := &fakeMessageStore{}
	creator := &fakeProposalCreator{err: apperrors.NewExtractionFailedError("missing totalPrice")}

	svc := testEmailService(t, &fakeSender{}, &fakeRfpStore{}, vendors, messages, creator)

	result, err := svc.ProcessInbound(context.Background(), inboundPayload("Re: [ID: "+testRfpID+"]"))
	require.NoError(t, err)

	assert.Nil(t, result.Proposal)
	assert.Equal(t, 1, creator.calls)
	require.Len(t, messages.created, 1)
	assert.Empty(t, messages.processed)
}

func TestProcessInbound_HTMLFallback(t *testing.T) {
	vendors := &fakeVendorStore{byEmail: map[string]*models.Vendor{
		"sales@acme.example.com": {ID: "vendor-a"},
	}}
	creator := &fakeProposalCreator{proposal: &models.Proposal{ID: "prop-1"}}
	svc := testEmailService(t, &fakeSender{}, &fakeRfpStore{}, vendors, &fakeMessageStore{}, creator)

	payload := inboundPayload("Re: [ID: " + testRfpID + "]")
	delete(payload, "text")
	payload["html"] = "<div><p>Our offer: <b>$24,000</b> total.</p><br>Delivery in 21 days.</div>"

	_, err := svc.ProcessInbound(context.Background(), payload)
	require.NoError(t, err)
	assert.Contains(t, creator.body, "Our offer: $24,000 total.")
	assert.Contains(t, creator.body, "Delivery in 21 days.")
	assert.NotContains(t, creator.body, "<")
}

func TestExtractRfpID(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		expected string
	}{
		{"plain marker", "RFP: Laptops [ID: " + testRfpID + "]", testRfpID},
		{"reply prefix and spacing", "Re: re: RFP [ID:  " + testRfpID + "]", testRfpID},
		{"uppercase uuid normalized", "[ID: 1F4E9A36-9C1D-4A43-8F2F-0F6F7F1C2D3E]", testRfpID},
		{"no marker", "Our proposal for laptops", ""},
		{"malformed id", "[ID: not-a-uuid]", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractRfpID(tt.subject))
		})
	}
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "", stripHTML(""))
	assert.Equal(t, "a < b", stripHTML("a &lt; b"))
	assert.Equal(t, "line one\nline two", stripHTML("line one<br/>line two"))
}
