// Package handlers exposes the HTTP surface. Handlers only decode requests,
// delegate to services, and encode responses.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/tanayreshamwala/rfp-ai-app/internal/common/errors"
)

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError maps the internal error taxonomy onto HTTP statuses.
func WriteError(w http.ResponseWriter, err error) {
	var se *apperrors.StandardError
	if !errors.As(err, &se) {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch se.Code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInsufficientInput, apperrors.ErrCodeWebhookInvalid:
		status = http.StatusBadRequest
	case apperrors.ErrCodeRecordNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeDuplicateProposal:
		status = http.StatusConflict
	case apperrors.ErrCodeModelRateLimited:
		status = http.StatusTooManyRequests
	case apperrors.ErrCodeModelUnavailable:
		status = http.StatusServiceUnavailable
	case apperrors.ErrCodeModelTimeout:
		status = http.StatusGatewayTimeout
	case apperrors.ErrCodeGenerationFailed, apperrors.ErrCodeExtractionFailed, apperrors.ErrCodeComparisonFailed, apperrors.ErrCodeMalformedResponse:
		status = http.StatusBadGateway
	}

	WriteJSON(w, status, map[string]interface{}{
		"error":   se.Message,
		"code":    string(se.Code),
		"details": se.Details,
	})
}

func decodeBody(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return apperrors.NewInvalidInputError("invalid JSON body: " + err.Error())
	}
	return nil
}
