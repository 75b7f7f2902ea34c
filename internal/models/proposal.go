package models

import "time"

// ProposalStatus tracks review state of a vendor proposal.
type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusReviewed ProposalStatus = "reviewed"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// ProposalItem is one offered line item. Every field is best-effort since it
// is derived from unstructured email text.
type ProposalItem struct {
	Name       string   `json:"name,omitempty"`
	Quantity   *float64 `json:"quantity,omitempty"`
	UnitPrice  *float64 `json:"unitPrice,omitempty"`
	TotalPrice *float64 `json:"totalPrice,omitempty"`
	Specs      string   `json:"specs,omitempty"`
}

// ProposalExtract is the structured value extracted from one vendor email.
type ProposalExtract struct {
	Items        []ProposalItem `json:"items"`
	TotalPrice   float64        `json:"totalPrice"`
	Currency     string         `json:"currency"`
	DeliveryDays *int           `json:"deliveryDays,omitempty"`
	PaymentTerms string         `json:"paymentTerms,omitempty"`
	Warranty     string         `json:"warranty,omitempty"`
	Notes        string         `json:"notes,omitempty"`
}

// Proposal is a persisted vendor response to an RFP.
type Proposal struct {
	ID             string          `json:"id"`
	RfpID          string          `json:"rfpId"`
	VendorID       string          `json:"vendorId"`
	VendorName     string          `json:"vendorName,omitempty"`
	RawEmailBody   string          `json:"rawEmailBody,omitempty"`
	EmailMessageID string          `json:"emailMessageId,omitempty"`
	Extract        ProposalExtract `json:"parsed"`
	Status         ProposalStatus  `json:"status"`
	AIScore        *float64        `json:"aiScore,omitempty"`
	AISummary      string          `json:"aiSummary,omitempty"`
	AIPros         []string        `json:"aiPros,omitempty"`
	AICons         []string        `json:"aiCons,omitempty"`
	AIRecommended  bool            `json:"aiRecommendation"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
