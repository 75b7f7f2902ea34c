// Package errors provides the standardized error taxonomy for the RFP pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Error Codes
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Caller-side precondition violations. Never retried.
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeInsufficientInput ErrorCode = "INSUFFICIENT_INPUT"

	// Model transport and response failures.
	ErrCodeModelRateLimited   ErrorCode = "MODEL_RATE_LIMITED"
	ErrCodeModelUnavailable   ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeModelRejected      ErrorCode = "MODEL_REJECTED"
	ErrCodeModelTimeout       ErrorCode = "MODEL_TIMEOUT"
	ErrCodeMalformedResponse  ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeMissingCredentials ErrorCode = "MISSING_CREDENTIALS"

	// Domain-level shape validation after a successful model call.
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	ErrCodeComparisonFailed ErrorCode = "COMPARISON_FAILED"

	// Record store and email collaborators.
	ErrCodeRecordNotFound    ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeDuplicateProposal ErrorCode = "DUPLICATE_PROPOSAL"
	ErrCodeStoreFailed       ErrorCode = "STORE_FAILED"
	ErrCodeEmailSendFailed   ErrorCode = "EMAIL_SEND_FAILED"
	ErrCodeWebhookInvalid    ErrorCode = "WEBHOOK_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets errors.Is match two StandardErrors by code.
func (e *StandardError) Is(target error) bool {
	var se *StandardError
	if errors.As(target, &se) {
		return e.Code == se.Code
	}
	return false
}

// ==========================
// 2. Constructors
// ==========================

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Caller-supplied argument violates a precondition",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInsufficientInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsufficientInput,
		Message:   "At least 2 proposals are required for comparison",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewModelRateLimitedError(status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelRateLimited,
		Message:   "Model endpoint rate limited the request",
		Details:   fmt.Sprintf("status: %d", status),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewModelUnavailableError(status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelUnavailable,
		Message:   "Model endpoint returned a server error",
		Details:   fmt.Sprintf("status: %d", status),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelConnectionError marks the endpoint unreachable at the network
// level. Unlike a 5xx it is not retried: the failure precedes any
// provider-side processing and is surfaced to the caller as-is.
func NewModelConnectionError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelUnavailable,
		Message:   "Model endpoint could not be reached",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewModelRejectedError(status int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelRejected,
		Message:   "Model endpoint rejected the request",
		Details:   fmt.Sprintf("status: %d, %s", status, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewModelTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeModelTimeout,
		Message:   "Model call exceeded the request deadline",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewMalformedResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   "Model output could not be coerced into a structured value",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewMissingCredentialsError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingCredentials,
		Message:   "Model API key is not configured",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewGenerationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "AI response failed domain validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExtractionFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailed,
		Message:   "AI extraction response failed domain validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewComparisonFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeComparisonFailed,
		Message:   "AI comparison response failed shape validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewRecordNotFoundError(kind, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   fmt.Sprintf("%s not found", kind),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDuplicateProposalError(rfpID, vendorID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateProposal,
		Message:   "Proposal already exists for this vendor and RFP",
		Details:   fmt.Sprintf("rfpId: %s, vendorId: %s", rfpID, vendorID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewStoreFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreFailed,
		Message:   "Record store operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewEmailSendFailedError(recipient string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Email delivery failed",
		Details:   fmt.Sprintf("to: %s, error: %s", recipient, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewWebhookInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWebhookInvalid,
		Message:   "Inbound email payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Wrap annotates err with additional context while preserving its code for
// errors.Is matching.
func Wrap(err error, details string) error {
	var se *StandardError
	if errors.As(err, &se) {
		return &StandardError{
			Code:      se.Code,
			Message:   se.Message,
			Details:   details + ": " + se.Details,
			Retryable: se.Retryable,
			Timestamp: se.Timestamp,
		}
	}
	return fmt.Errorf("%s: %w", details, err)
}

// ==========================
// 3. Utility Functions
// ==========================

// CodeOf extracts the ErrorCode from err, or "" when err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsRetryable reports whether the gateway may retry the failed attempt.
func IsRetryable(err error) bool {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// NeedsBackoff reports whether a retry must wait before the next attempt.
// Parse failures are retried immediately; transport throttling is not.
func NeedsBackoff(err error) bool {
	switch CodeOf(err) {
	case ErrCodeModelRateLimited, ErrCodeModelUnavailable:
		return true
	default:
		return false
	}
}

func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
