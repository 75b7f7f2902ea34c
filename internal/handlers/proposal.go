package handlers

import (
	"context"
	"net/http"

	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

type ProposalService interface {
	Get(ctx context.Context, id string) (*models.Proposal, error)
	ListForRfp(ctx context.Context, rfpID string) ([]*models.Proposal, error)
	CreateFromEmail(ctx context.Context, rfpID, vendorID, emailBody, messageID string) (*models.Proposal, error)
	CompareForRfp(ctx context.Context, rfpID string) (*models.ComparisonResult, error)
	UpdateStatus(ctx context.Context, id string, status models.ProposalStatus) error
}

type ProposalHandler struct {
	service ProposalService
}

func NewProposalHandler(service ProposalService) *ProposalHandler {
	return &ProposalHandler{service: service}
}

func (h *ProposalHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/rfps/{id}/proposals", h.handleCreate)
	mux.HandleFunc("GET /api/rfps/{id}/proposals", h.handleListForRfp)
	mux.HandleFunc("POST /api/rfps/{id}/compare", h.handleCompare)
	mux.HandleFunc("GET /api/proposals/{id}", h.handleGet)
	mux.HandleFunc("PATCH /api/proposals/{id}/status", h.handleUpdateStatus)
}

// handleCreate ingests a proposal from a manually pasted vendor email.
func (h *ProposalHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VendorID  string `json:"vendorId"`
		EmailBody string `json:"emailBody"`
	}
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	proposal, err := h.service.CreateFromEmail(r.Context(), r.PathValue("id"), req.VendorID, req.EmailBody, "")
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, proposal)
}

func (h *ProposalHandler) handleListForRfp(w http.ResponseWriter, r *http.Request) {
	proposals, err := h.service.ListForRfp(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if proposals == nil {
		proposals = []*models.Proposal{}
	}
	WriteJSON(w, http.StatusOK, proposals)
}

func (h *ProposalHandler) handleCompare(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.CompareForRfp(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (h *ProposalHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, proposal)
}

func (h *ProposalHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.ProposalStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"id": r.PathValue("id"), "status": req.Status})
}
