package models

import "time"

// RfpStatus tracks the lifecycle of a procurement request.
type RfpStatus string

const (
	RfpStatusDraft     RfpStatus = "draft"
	RfpStatusSent      RfpStatus = "sent"
	RfpStatusClosed    RfpStatus = "closed"
	RfpStatusCancelled RfpStatus = "cancelled"
)

// RfpItem is a single requested line item.
type RfpItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Specs    string  `json:"specs,omitempty"`
}

// SentToVendor records a dispatch of this RFP to one vendor.
type SentToVendor struct {
	VendorID       string    `json:"vendorId"`
	SentAt         time.Time `json:"sentAt"`
	EmailMessageID string    `json:"emailMessageId,omitempty"`
}

// Rfp is a persisted Request for Proposal.
type Rfp struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	BudgetAmount     *float64       `json:"budgetAmount,omitempty"`
	BudgetCurrency   string         `json:"budgetCurrency"`
	DeliveryDeadline *time.Time     `json:"deliveryDeadline,omitempty"`
	PaymentTerms     string         `json:"paymentTerms,omitempty"`
	WarrantyTerms    string         `json:"warrantyTerms,omitempty"`
	Items            []RfpItem      `json:"items"`
	Status           RfpStatus      `json:"status"`
	SentToVendors    []SentToVendor `json:"sentToVendors,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// RfpDraft is the structured value synthesized from free text, before the
// caller decides whether to persist it. DeliveryDeadline stays a YYYY-MM-DD
// string as produced by the model; conversion happens at persistence time.
type RfpDraft struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	BudgetAmount     *float64  `json:"budgetAmount,omitempty"`
	BudgetCurrency   string    `json:"budgetCurrency"`
	DeliveryDeadline string    `json:"deliveryDeadline,omitempty"`
	PaymentTerms     string    `json:"paymentTerms,omitempty"`
	WarrantyTerms    string    `json:"warrantyTerms,omitempty"`
	Items            []RfpItem `json:"items"`
}
