// Package identity turns bearer credentials into external identities.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnauthenticated is returned for every failure to resolve a credential.
// Provider outages and invalid tokens are deliberately indistinguishable.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is an externally authenticated principal
type Identity struct {
	ID       string                 `json:"id"`
	Email    string                 `json:"email"`
	FullName string                 `json:"full_name,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Verifier checks a raw bearer token with the identity provider
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Resolver extracts bearer tokens and verifies them within a time bound
type Resolver struct {
	verifier Verifier
	timeout  time.Duration
}

// NewResolver creates a resolver. A non-positive timeout falls back to 5s.
func NewResolver(verifier Verifier, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{verifier: verifier, timeout: timeout}
}

// Resolve verifies the Authorization header value and returns the identity
func (r *Resolver) Resolve(ctx context.Context, authorizationHeader string) (*Identity, error) {
	token, ok := BearerToken(authorizationHeader)
	if !ok {
		return nil, ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id, err := r.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if id == nil || id.ID == "" {
		return nil, ErrUnauthenticated
	}
	return id, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// DisplayName picks a human name for the identity, falling back to the email's local part
func (i *Identity) DisplayName() string {
	if name := strings.TrimSpace(i.FullName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(i.Email, "@")
	return local
}
