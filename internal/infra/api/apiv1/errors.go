package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/roberjo/AuraStream-sub001/internal/domain"
	"github.com/roberjo/AuraStream-sub001/internal/infra/logging"
)

// Error codes in the response envelope.
const (
	CodeInput              = "INPUT_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	CodeBackendTimeout     = "BACKEND_TIMEOUT"
	CodeJobStore           = "JOB_STORE_ERROR"
	CodeCacheStore         = "CACHE_STORE_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL"
)

// statusFor maps an error to its HTTP status and envelope code.
func statusFor(err error) (int, string) {
	return statusForKind(domain.KindOf(err))
}

func statusForKind(kind domain.ErrorKind) (int, string) {
	switch kind {
	case domain.KindInput:
		return http.StatusBadRequest, CodeInput
	case domain.KindNotFound:
		return http.StatusNotFound, CodeNotFound
	case domain.KindBackendUnavailable:
		return http.StatusServiceUnavailable, CodeBackendUnavailable
	case domain.KindBackendTimeout:
		return http.StatusGatewayTimeout, CodeBackendTimeout
	case domain.KindCacheStore:
		return http.StatusServiceUnavailable, CodeCacheStore
	case domain.KindJobStore:
		return http.StatusInternalServerError, CodeJobStore
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// itemErrorCode gives stored item error kinds the envelope's code names.
func itemErrorCode(kind string) string {
	_, code := statusForKind(domain.ErrorKind(kind))
	return code
}

// WriteError writes the error envelope.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	body := ErrorResponse{Error: ErrorBody{Code: code, Message: msg, Timestamp: time.Now().UTC()}}
	if id := logging.RequestID(r.Context()); id != "" {
		body.Error.RequestId = &id
	}
	writeJSON(w, status, body)
}

// writeDomainError classifies err. Store and internal failures keep their
// details in the log only.
func writeDomainError(w http.ResponseWriter, r *http.Request, log *zerolog.Logger, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	switch code {
	case CodeInternal, CodeJobStore, CodeCacheStore:
		logging.With(r.Context(), log).Error().Err(err).Str("code", code).Msg("request failed")
		msg = http.StatusText(status)
	case CodeBackendUnavailable, CodeBackendTimeout:
		logging.With(r.Context(), log).Warn().Err(err).Str("code", code).Msg("backend error")
		msg = domain.ErrBackendUnavailable.Error()
		if code == CodeBackendTimeout {
			msg = domain.ErrBackendTimeout.Error()
		}
	}
	WriteError(w, r, status, code, msg)
}

// ParamErrorHandler answers malformed path parameters with an input error.
func ParamErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	var pe *InvalidParamFormatError
	if errors.As(err, &pe) {
		WriteError(w, r, http.StatusBadRequest, CodeInput, "malformed "+pe.ParamName)
		return
	}
	WriteError(w, r, http.StatusBadRequest, CodeInput, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
