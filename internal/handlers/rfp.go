package handlers

import (
	"context"
	"net/http"

	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

// RfpService is the lifecycle surface the RFP endpoints need.
type RfpService interface {
	CreateFromText(ctx context.Context, userText string) (*models.Rfp, error)
	Get(ctx context.Context, id string) (*models.Rfp, error)
	List(ctx context.Context, status models.RfpStatus) ([]*models.Rfp, error)
	Update(ctx context.Context, rfp *models.Rfp) (*models.Rfp, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status models.RfpStatus) (*models.Rfp, error)
}

// RfpSender dispatches an RFP to vendors by email.
type RfpSender interface {
	SendRfp(ctx context.Context, rfpID string, vendorIDs []string) (*models.Rfp, error)
}

type RfpHandler struct {
	service RfpService
	sender  RfpSender
}

func NewRfpHandler(service RfpService, sender RfpSender) *RfpHandler {
	return &RfpHandler{service: service, sender: sender}
}

func (h *RfpHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/rfps", h.handleCreate)
	mux.HandleFunc("GET /api/rfps", h.handleList)
	mux.HandleFunc("GET /api/rfps/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/rfps/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/rfps/{id}", h.handleDelete)
	mux.HandleFunc("PATCH /api/rfps/{id}/status", h.handleUpdateStatus)
	mux.HandleFunc("POST /api/rfps/{id}/send", h.handleSend)
}

func (h *RfpHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	rfp, err := h.service.CreateFromText(r.Context(), req.Text)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, rfp)
}

func (h *RfpHandler) handleList(w http.ResponseWriter, r *http.Request) {
	status := models.RfpStatus(r.URL.Query().Get("status"))

	rfps, err := h.service.List(r.Context(), status)
	if err != nil {
		WriteError(w, err)
		return
	}
	if rfps == nil {
		rfps = []*models.Rfp{}
	}
	WriteJSON(w, http.StatusOK, rfps)
}

func (h *RfpHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	rfp, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rfp)
}

func (h *RfpHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var rfp models.Rfp
	if err := decodeBody(r, &rfp); err != nil {
		WriteError(w, err)
		return
	}
	rfp.ID = r.PathValue("id")

	updated, err := h.service.Update(r.Context(), &rfp)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (h *RfpHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RfpHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.RfpStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	rfp, err := h.service.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rfp)
}

func (h *RfpHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VendorIDs []string `json:"vendorIds"`
	}
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	rfp, err := h.sender.SendRfp(r.Context(), r.PathValue("id"), req.VendorIDs)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rfp)
}
