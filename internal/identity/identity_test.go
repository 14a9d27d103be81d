package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifierFunc func(ctx context.Context, token string) (*Identity, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (*Identity, error) {
	return f(ctx, token)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, ok := BearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestResolveRejectsMissingHeader(t *testing.T) {
	called := false
	r := NewResolver(verifierFunc(func(ctx context.Context, token string) (*Identity, error) {
		called = true
		return nil, nil
	}), time.Second)

	_, err := r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, called)
}

func TestResolveMapsProviderErrors(t *testing.T) {
	r := NewResolver(verifierFunc(func(ctx context.Context, token string) (*Identity, error) {
		return nil, errors.New("provider down")
	}), time.Second)

	_, err := r.Resolve(context.Background(), "Bearer abc")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveTimesOut(t *testing.T) {
	r := NewResolver(verifierFunc(func(ctx context.Context, token string) (*Identity, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), 20*time.Millisecond)

	start := time.Now()
	_, err := r.Resolve(context.Background(), "Bearer abc")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRemoteVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"user-1","email":"a@example.com","user_metadata":{"full_name":"Alex Smith"}}`))
	}))
	defer srv.Close()

	r := NewResolver(NewRemoteVerifier(srv.URL, "anon-key", srv.Client()), time.Second)

	id, err := r.Resolve(context.Background(), "Bearer good")
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.ID)
	assert.Equal(t, "a@example.com", id.Email)
	assert.Equal(t, "Alex Smith", id.DisplayName())

	_, err = r.Resolve(context.Background(), "Bearer bad")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRemoteVerifierSlowProvider(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	r := NewResolver(NewRemoteVerifier(srv.URL, "k", srv.Client()), 50*time.Millisecond)
	_, err := r.Resolve(context.Background(), "Bearer slow")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestJWTVerifier(t *testing.T) {
	const secret = "test-secret"
	v := NewJWTVerifier(secret)
	now := time.Now()

	valid, err := SignToken(secret, Claims{
		Email:            "b@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-2", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	})
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), valid)
	require.NoError(t, err)
	assert.Equal(t, "user-2", id.ID)
	assert.Equal(t, "b", id.DisplayName())

	tests := []struct {
		name   string
		secret string
		claims Claims
	}{
		{"expired", secret, Claims{Email: "b@example.com", RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}}},
		{"no expiry", secret, Claims{Email: "b@example.com", RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}}},
		{"wrong secret", "other", Claims{Email: "b@example.com", RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}}},
		{"no email", secret, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := SignToken(tt.secret, tt.claims)
			require.NoError(t, err)
			_, err = v.Verify(context.Background(), token)
			assert.Error(t, err)
		})
	}
}
