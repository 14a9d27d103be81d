package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"familyhub/internal/identity"
	"familyhub/internal/logging"
	"familyhub/internal/payments"
	"familyhub/internal/service"
	"familyhub/internal/validation"

	"go.uber.org/zap"
)

const (
	KindValidation    = "validation_error"
	KindInvalidBody   = "invalid_body"
	KindInternalError = "internal_error"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// errorKinds maps service errors to a status and a machine-readable kind.
// Order matters: more specific errors come first.
var errorKinds = []struct {
	err    error
	status int
	kind   string
}{
	{service.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{identity.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrInviteExpired, http.StatusNotFound, "invite_expired"},
	{service.ErrNoFamily, http.StatusNotFound, "no_family"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrConflict, http.StatusConflict, "conflict"},
	{service.ErrFamilySelectionRequired, http.StatusBadRequest, "family_selection_required"},
	{payments.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature"},
	{service.ErrUpstream, http.StatusBadGateway, "upstream_error"},
	{service.ErrNotConfigured, http.StatusServiceUnavailable, "not_configured"},
}

// classify turns an error into the response it produces
func classify(err error) (int, ErrorResponse) {
	var vErr validation.Error
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, ErrorResponse{Error: KindValidation, Message: vErr.Message, Field: vErr.Field}
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, ErrorResponse{Error: k.kind, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: KindInternalError, Message: "Internal server error"}
}

// Responder writes JSON responses and reports server errors
type Responder struct {
	logger   *zap.Logger
	reporter *logging.Reporter
}

func NewResponder(logger *zap.Logger, reporter *logging.Reporter) *Responder {
	return &Responder{logger: logger, reporter: reporter}
}

// Error writes the response for err. 5xx responses are logged and reported;
// the cause is never sent to the client.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		rs.logger.Error("request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
		rs.reporter.CaptureRequestError(r, err)
	}
	respondJSON(w, status, body)
}

// respondWithError writes an error body and logs err when given
func respondWithError(w http.ResponseWriter, status int, kind, message string, err error) {
	if err != nil {
		zap.L().Warn(message, zap.String("kind", kind), zap.Error(err))
	}
	respondJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}
