package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
	"github.com/tanayreshamwala/rfp-ai-app/internal/models"
)

type VendorStore interface {
	Create(ctx context.Context, vendor *models.Vendor) error
	GetByID(ctx context.Context, id string) (*models.Vendor, error)
	ListActive(ctx context.Context) ([]*models.Vendor, error)
}

// VendorHandler is backed directly by the repository; vendors have no
// workflow beyond CRUD.
type VendorHandler struct {
	store VendorStore
}

func NewVendorHandler(store VendorStore) *VendorHandler {
	return &VendorHandler{store: store}
}

func (h *VendorHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/vendors", h.handleCreate)
	mux.HandleFunc("GET /api/vendors", h.handleList)
	mux.HandleFunc("GET /api/vendors/{id}", h.handleGet)
}

func (h *VendorHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var vendor models.Vendor
	if err := decodeBody(r, &vendor); err != nil {
		WriteError(w, err)
		return
	}
	if strings.TrimSpace(vendor.Name) == "" || !strings.Contains(vendor.Email, "@") {
		WriteError(w, apperrors.NewInvalidInputError("vendor name and a valid email are required"))
		return
	}

	vendor.ID = uuid.NewString()
	vendor.IsActive = true
	if err := h.store.Create(r.Context(), &vendor); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, vendor)
}

func (h *VendorHandler) handleList(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.store.ListActive(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	if vendors == nil {
		vendors = []*models.Vendor{}
	}
	WriteJSON(w, http.StatusOK, vendors)
}

func (h *VendorHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, vendor)
}
