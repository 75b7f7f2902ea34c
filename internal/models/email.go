package models

import "time"

// EmailDirection marks whether a message was sent by us or received from a vendor.
type EmailDirection string

const (
	EmailDirectionSent     EmailDirection = "sent"
	EmailDirectionReceived EmailDirection = "received"
)

// EmailMessage is a logged email associated with an RFP and a vendor.
type EmailMessage struct {
	ID        string         `json:"id"`
	Direction EmailDirection `json:"direction"`
	RfpID     string         `json:"rfpId"`
	VendorID  string         `json:"vendorId"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	HTMLBody  string         `json:"htmlBody,omitempty"`
	MessageID string         `json:"messageId,omitempty"`
	Processed bool           `json:"processed"`
	CreatedAt time.Time      `json:"createdAt"`
}
