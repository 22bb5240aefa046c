package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"content-payment-service/internal/domain"
)

const (
	codeValidation         = "validation_error"
	codeUserNotFound       = "user_not_found"
	codeJobNotFound        = "job_not_found"
	codeOwnershipMismatch  = "ownership_mismatch"
	codePaymentNotComplete = "payment_not_complete"
	codeNotPaid            = "not_paid"
	codeProvider           = "provider_error"
	codeRateLimited        = "rate_limited"
	codeUnauthorized       = "unauthorized"
	codeForbidden          = "forbidden"
	codeInternal           = "internal_error"
)

type errorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// mapError turns a use-case error into the status and body clients see.
// Unknown errors never leak their message.
func mapError(err error) (int, errorBody) {
	var pe *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, errorBody{Detail: err.Error(), Code: codeValidation}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorBody{Detail: "User not found", Code: codeUserNotFound}
	case errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound, errorBody{Detail: "Job not found", Code: codeJobNotFound}
	case errors.Is(err, domain.ErrOwnershipMismatch):
		return http.StatusForbidden, errorBody{Detail: "Payment intent does not belong to this user", Code: codeOwnershipMismatch}
	case errors.Is(err, domain.ErrPaymentNotComplete):
		return http.StatusPreconditionFailed, errorBody{Detail: err.Error(), Code: codePaymentNotComplete}
	case errors.Is(err, domain.ErrNotPaid):
		return http.StatusPreconditionFailed, errorBody{Detail: "No payment found for this job (was it paid?)", Code: codeNotPaid}
	case errors.As(err, &pe):
		return http.StatusBadRequest, errorBody{Detail: "Stripe error: " + pe.Message, Code: codeProvider}
	default:
		return http.StatusInternalServerError, errorBody{Detail: "internal error", Code: codeInternal}
	}
}

func writeError(w http.ResponseWriter, log *zerolog.Logger, err error) {
	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	} else {
		log.Warn().Err(err).Int("status", status).Str("code", body.Code).Msg("request rejected")
	}
	writeJSON(w, status, body)
}
