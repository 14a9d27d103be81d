package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"familyhub/internal/identity"
	"familyhub/internal/logging"
	"familyhub/internal/payments"
	"familyhub/internal/service"
	"familyhub/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "teapot", "short and stout", nil)

	assert.Equal(t, 418, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "teapot", body.Error)
	assert.Equal(t, "short and stout", body.Message)
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	respondWithError(httptest.NewRecorder(), 400, "bad", "Something went wrong", errors.New("boom"))

	entries := logs.FilterMessage("Something went wrong").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{"identity failure", fmt.Errorf("%w: expired", identity.ErrUnauthenticated), http.StatusUnauthorized, "unauthenticated"},
		{"forbidden", fmt.Errorf("%w: wrong email", service.ErrForbidden), http.StatusForbidden, "forbidden"},
		{"not found", service.ErrNotFound, http.StatusNotFound, "not_found"},
		{"expired invite", service.ErrInviteExpired, http.StatusNotFound, "invite_expired"},
		{"no family", service.ErrNoFamily, http.StatusNotFound, "no_family"},
		{"conflict", fmt.Errorf("%w: already a member", service.ErrConflict), http.StatusConflict, "conflict"},
		{"selection", service.ErrFamilySelectionRequired, http.StatusBadRequest, "family_selection_required"},
		{"signature", payments.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature"},
		{"upstream", fmt.Errorf("%w: timeout", service.ErrUpstream), http.StatusBadGateway, "upstream_error"},
		{"not configured", service.ErrNotConfigured, http.StatusServiceUnavailable, "not_configured"},
		{"validation", validation.Error{Field: "name", Message: "name is required"}, http.StatusBadRequest, KindValidation},
		{"datastore", errors.New("database is locked"), http.StatusInternalServerError, KindInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.kind, body.Error)
		})
	}
}

func TestResponderHidesInternalErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	rs := NewResponder(zap.New(core), logging.NewReporter("", "test", zap.NewNop()))

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rs.Error(recorder, req, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "connection refused")
	assert.Equal(t, 1, logs.Len())
}

func TestResponderIncludesValidationField(t *testing.T) {
	rs := NewResponder(zap.NewNop(), nil)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	rs.Error(recorder, req, validation.Error{Field: "title", Message: "title is required"})

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "title", body.Field)
	assert.Equal(t, "title is required", body.Message)
}
