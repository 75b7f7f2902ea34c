// Package email handles outbound RFP dispatch through SES and inbound vendor
// reply processing from the email webhook.
package email

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"

	"github.com/tanayreshamwala/rfp-ai-app/internal/common/config"
	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/logger"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/validation"
	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

// rfpIDPattern finds the RFP identifier embedded in outbound subjects, so a
// vendor reply can be routed back to its RFP as long as the subject survives.
var rfpIDPattern = regexp.MustCompile(`\[ID:\s*([0-9a-fA-F-]{36})\]`)

// Sender is the outbound mail transport.
type Sender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type RfpStore interface {
	GetByID(ctx context.Context, id string) (*models.Rfp, error)
	Update(ctx context.Context, rfp *models.Rfp) error
	UpdateStatus(ctx context.Context, id string, status models.RfpStatus) error
}

type VendorStore interface {
	GetByID(ctx context.Context, id string) (*models.Vendor, error)
	GetByEmail(ctx context.Context, email string) (*models.Vendor, error)
}

type MessageStore interface {
	Create(ctx context.Context, m *models.EmailMessage) error
	MarkProcessed(ctx context.Context, id string) error
}

// ProposalCreator ingests a vendor reply as a structured proposal.
type ProposalCreator interface {
	CreateFromEmail(ctx context.Context, rfpID, vendorID, emailBody, messageID string) (*models.Proposal, error)
}

type Service struct {
	sender    Sender
	rfps      RfpStore
	vendors   VendorStore
	messages  MessageStore
	proposals ProposalCreator
	cfg       config.EmailConfig
	logger    logger.Logger
}

func NewService(sender Sender, rfps RfpStore, vendors VendorStore, messages MessageStore, proposals ProposalCreator, cfg config.EmailConfig, log logger.Logger) *Service {
	return &Service{
		sender:    sender,
		rfps:      rfps,
		vendors:   vendors,
		messages:  messages,
		proposals: proposals,
		cfg:       cfg,
		logger: log.WithFields(map[string]interface{}{
			"component": "email-service",
		}),
	}
}

// SendRfp dispatches an RFP to the given vendors and marks it sent. Delivery
// is per-vendor: one bounced vendor does not abort the rest, but zero
// successful deliveries fails the whole operation.
func (s *Service) SendRfp(ctx context.Context, rfpID string, vendorIDs []string) (*models.Rfp, error) {
	if len(vendorIDs) == 0 {
		return nil, apperrors.NewInvalidInputError("at least one vendor is required")
	}

	rfp, err := s.rfps.GetByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if rfp.Status != models.RfpStatusDraft && rfp.Status != models.RfpStatusSent {
		return nil, apperrors.NewInvalidInputError("rfp with status " + string(rfp.Status) + " cannot be sent")
	}

	subject := fmt.Sprintf("RFP: %s [ID: %s]", rfp.Title, rfp.ID)
	body := renderRfpEmailBody(rfp)

	var lastErr error
	delivered := 0
	for _, vendorID := range vendorIDs {
		vendor, err := s.vendors.GetByID(ctx, vendorID)
		if err != nil {
			lastErr = err
			s.logger.WithError(err).Warn("skipping unknown vendor", map[string]interface{}{"vendorId": vendorID})
			continue
		}

		out, err := s.sender.SendEmail(ctx, s.buildOutbound(vendor.Email, subject, body))
		if err != nil {
			lastErr = apperrors.NewEmailSendFailedError(vendor.Email, err)
			s.logger.WithError(err).Error("rfp email delivery failed", map[string]interface{}{
				"rfpId":    rfp.ID,
				"vendorId": vendor.ID,
			})
			continue
		}

		messageID := ""
		if out != nil && out.MessageId != nil {
			messageID = *out.MessageId
		}
		record := &models.EmailMessage{
			ID:        uuid.NewString(),
			Direction: models.EmailDirectionSent,
			RfpID:     rfp.ID,
			VendorID:  vendor.ID,
			From:      s.cfg.FromAddress,
			To:        vendor.Email,
			Subject:   subject,
			Body:      body,
			MessageID: messageID,
			Processed: true,
		}
		if err := s.messages.Create(ctx, record); err != nil {
			s.logger.WithError(err).Error("failed to log sent email", map[string]interface{}{"rfpId": rfp.ID})
		}

		rfp.SentToVendors = append(rfp.SentToVendors, models.SentToVendor{
			VendorID:       vendor.ID,
			SentAt:         time.Now().UTC(),
			EmailMessageID: record.ID,
		})
		delivered++
	}

	if delivered == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, apperrors.NewInvalidInputError("no deliverable vendors")
	}

	rfp.Status = models.RfpStatusSent
	if err := s.rfps.Update(ctx, rfp); err != nil {
		return nil, err
	}

	s.logger.Info("rfp sent to vendors", map[string]interface{}{
		"rfpId":     rfp.ID,
		"delivered": delivered,
		"requested": len(vendorIDs),
	})
	return rfp, nil
}

func (s *Service) buildOutbound(to, subject, body string) *ses.SendEmailInput {
	input := &ses.SendEmailInput{
		Source: aws.String(s.cfg.FromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	}
	if s.cfg.ReplyTo != "" {
		input.ReplyToAddresses = []string{s.cfg.ReplyTo}
	}
	return input
}

// InboundResult reports what became of one webhook delivery.
type InboundResult struct {
	Email    *models.EmailMessage
	Proposal *models.Proposal
}

// ProcessInbound handles one webhook payload. The email is always recorded;
// proposal extraction on top of it is best-effort and its failure does not
// fail the ingestion.
func (s *Service) ProcessInbound(ctx context.Context, payload map[string]interface{}) (*InboundResult, error) {
	if err := validation.ValidateInboundEmail(payload); err != nil {
		return nil, err
	}

	from := stringField(payload, "from")
	subject := stringField(payload, "subject")
	text := stringField(payload, "text")
	html := stringField(payload, "html")

	body := strings.TrimSpace(text)
	if body == "" {
		body = stripHTML(html)
	}

	record := &models.EmailMessage{
		ID:        uuid.NewString(),
		Direction: models.EmailDirectionReceived,
		From:      from,
		To:        stringField(payload, "to"),
		Subject:   subject,
		Body:      body,
		HTMLBody:  html,
		MessageID: stringField(payload, "messageId"),
	}

	rfpID := ExtractRfpID(subject)
	if rfpID == "" {
		s.logger.Warn("inbound email has no rfp id in subject", map[string]interface{}{"subject": subject})
	}
	record.RfpID = rfpID

	var vendor *models.Vendor
	if addr := senderAddress(from); addr != "" {
		v, err := s.vendors.GetByEmail(ctx, addr)
		if err != nil {
			s.logger.Warn("inbound email from unknown sender", map[string]interface{}{"from": addr})
		} else {
			vendor = v
			record.VendorID = v.ID
		}
	}

	if err := s.messages.Create(ctx, record); err != nil {
		return nil, err
	}

	result := &InboundResult{Email: record}
	if rfpID == "" || vendor == nil || body == "" {
		return result, nil
	}

	proposal, err := s.proposals.CreateFromEmail(ctx, rfpID, vendor.ID, body, record.ID)
	if err != nil {
		s.logger.WithError(err).Warn("inbound email recorded but proposal extraction failed", map[string]interface{}{
			"emailId": record.ID,
			"rfpId":   rfpID,
		})
		return result, nil
	}

	if err := s.messages.MarkProcessed(ctx, record.ID); err != nil {
		s.logger.WithError(err).Warn("failed to mark email processed", map[string]interface{}{"emailId": record.ID})
	}
	record.Processed = true
	result.Proposal = proposal

	s.logger.Info("inbound email converted to proposal", map[string]interface{}{
		"emailId":    record.ID,
		"proposalId": proposal.ID,
	})
	return result, nil
}

// ExtractRfpID pulls the UUID out of the "[ID: ...]" subject marker.
func ExtractRfpID(subject string) string {
	match := rfpIDPattern.FindStringSubmatch(subject)
	if len(match) < 2 {
		return ""
	}
	return strings.ToLower(match[1])
}

func renderRfpEmailBody(rfp *models.Rfp) string {
	var b strings.Builder

	b.WriteString("Dear Vendor,\n\n")
	b.WriteString("We are requesting proposals for the following procurement:\n\n")
	b.WriteString(rfp.Title + "\n")
	b.WriteString(strings.Repeat("-", len(rfp.Title)) + "\n\n")
	b.WriteString(rfp.Description + "\n\nRequired items:\n")

	for i, item := range rfp.Items {
		b.WriteString(fmt.Sprintf("%d. %s x%g", i+1, item.Name, item.Quantity))
		if item.Specs != "" {
			b.WriteString(" (" + item.Specs + ")")
		}
		b.WriteString("\n")
	}

	if rfp.BudgetAmount != nil {
		b.WriteString(fmt.Sprintf("\nBudget: %s %g\n", rfp.BudgetCurrency, *rfp.BudgetAmount))
	}
	if rfp.DeliveryDeadline != nil {
		b.WriteString("Delivery deadline: " + rfp.DeliveryDeadline.Format("2006-01-02") + "\n")
	}
	if rfp.PaymentTerms != "" {
		b.WriteString("Payment terms: " + rfp.PaymentTerms + "\n")
	}
	if rfp.WarrantyTerms != "" {
		b.WriteString("Warranty: " + rfp.WarrantyTerms + "\n")
	}

	b.WriteString("\nPlease reply to this email with your proposal, including pricing, delivery timeline, payment terms, and warranty.\n")
	b.WriteString("Keep the subject line intact so your response is matched to this RFP.\n")

	return b.String()
}

var (
	htmlBreakPattern = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/li)\s*/?\s*>`)
	htmlTagPattern   = regexp.MustCompile(`<[^>]*>`)
	multiBlankLines  = regexp.MustCompile(`\n{3,}`)
)

// stripHTML degrades an HTML body to plain text when no text part arrived.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}
	text := htmlBreakPattern.ReplaceAllString(html, "\n")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(text)
	text = multiBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// senderAddress extracts the bare address from an RFC 5322 From value.
func senderAddress(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(from)
	}
	return addr.Address
}

func stringField(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
