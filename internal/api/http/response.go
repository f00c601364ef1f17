package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeError maps an error returned by a service onto a status code. The
// order matters: ErrCurrencyMismatch is also an ErrInvalidOperation.
// ErrMissingBillingInput is a server bug and falls through to 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "internal server error"
	}
	writeErrorCode(w, status, code, message)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEntityNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return http.StatusBadRequest, "CURRENCY_MISMATCH"
	case errors.Is(err, domain.ErrRentalOverlap):
		return http.StatusConflict, "RENTAL_OVERLAP"
	case errors.Is(err, domain.ErrBookingConflict):
		return http.StatusConflict, "BOOKING_CONFLICT"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return http.StatusConflict, "INVALID_STATE_TRANSITION"
	case errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusConflict, "INVALID_OPERATION"
	case errors.Is(err, domain.ErrBusinessRuleViolation):
		return http.StatusUnprocessableEntity, "BUSINESS_RULE_VIOLATION"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
