package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"familyhub/internal/service"
	"familyhub/internal/validation"
)

const (
	maxBodyBytes = 1 << 20

	FamilyIDHeader = "X-Family-ID"
)

// decodeJSON reads a size-limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return validation.Error{Field: "body", Message: "request body is required"}
		}
		return validation.Error{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// pathID parses a numeric path parameter. Malformed ids address nothing.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrNotFound
	}
	return id, nil
}

// queryTime parses an optional RFC 3339 query parameter
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, validation.Error{Field: name, Message: name + " must be an RFC 3339 timestamp"}
	}
	return &t, nil
}

// base carries what every family-scoped handler needs
type base struct {
	membership *service.MembershipService
	responder  *Responder
}

// familyID selects the family a collection request targets, from the
// X-Family-ID header or the family_id query parameter
func (b *base) familyID(r *http.Request) (int64, error) {
	requested := r.Header.Get(FamilyIDHeader)
	if requested == "" {
		requested = r.URL.Query().Get("family_id")
	}
	return b.membership.SelectFamily(r.Context(), GetIdentityFromContext(r.Context()), requested)
}

func (b *base) userID(r *http.Request) string {
	return GetIdentityFromContext(r.Context()).ID
}
