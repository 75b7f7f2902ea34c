package handlers

import (
	"context"
	"net/http"

	"github.com/tanayreshamwala/rfp-ai-app/internal/email"
)

type InboundProcessor interface {
	ProcessInbound(ctx context.Context, payload map[string]interface{}) (*email.InboundResult, error)
}

type WebhookHandler struct {
	processor InboundProcessor
}

func NewWebhookHandler(processor InboundProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

func (h *WebhookHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/email/inbound", h.handleInbound)
}

func (h *WebhookHandler) handleInbound(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := decodeBody(r, &payload); err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.processor.ProcessInbound(r.Context(), payload)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := map[string]interface{}{
		"emailId":   result.Email.ID,
		"processed": result.Email.Processed,
	}
	if result.Proposal != nil {
		resp["proposalId"] = result.Proposal.ID
	}
	WriteJSON(w, http.StatusOK, resp)
}
