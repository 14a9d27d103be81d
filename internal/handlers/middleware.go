package handlers

import (
	"context"
	"net/http"
	"time"

	"familyhub/internal/identity"
	"familyhub/internal/logging"
	"familyhub/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	IdentityContextKey  ContextKey = "identity"
	RequestIDContextKey ContextKey = "request_id"

	RequestIDHeader = "X-Request-ID"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	resolver   *identity.Resolver
	membership *service.MembershipService
	responder  *Responder
	reporter   *logging.Reporter
	logger     *zap.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(resolver *identity.Resolver, membership *service.MembershipService, responder *Responder, reporter *logging.Reporter, logger *zap.Logger) *Middleware {
	return &Middleware{
		resolver:   resolver,
		membership: membership,
		responder:  responder,
		reporter:   reporter,
		logger:     logger,
	}
}

// RequireIdentity rejects requests without a valid bearer token and makes
// sure the caller has a profile. Provider failures are reported as 401 too.
func (m *Middleware) RequireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := m.resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			m.logger.Debug("identity rejected", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
			respondJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: "A valid bearer token is required"})
			return
		}

		if _, err := m.membership.EnsureUserProfile(r.Context(), id); err != nil {
			m.responder.Error(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, id)
		next(w, r.WithContext(ctx))
	}
}

// OptionalIdentity attaches the identity when the token is valid and passes
// the request through either way
func (m *Middleware) OptionalIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next(w, r)
			return
		}

		id, err := m.resolver.Resolve(r.Context(), header)
		if err != nil {
			next(w, r)
			return
		}
		if _, err := m.membership.EnsureUserProfile(r.Context(), id); err != nil {
			m.responder.Error(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, id)
		next(w, r.WithContext(ctx))
	}
}

// RequestID propagates the caller's X-Request-ID or assigns a new one
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.logger.Info("request",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)))
	})
}

// Recover turns panics into 500 responses and reports them
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				m.logger.Error("panic in handler",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"))
				m.reporter.RecoverRequest(r, rec)
				respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: KindInternalError, Message: "Internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// GetIdentityFromContext retrieves the caller's identity from the request context
func GetIdentityFromContext(ctx context.Context) *identity.Identity {
	id, ok := ctx.Value(IdentityContextKey).(*identity.Identity)
	if !ok {
		return nil
	}
	return id
}

// GetRequestID retrieves the request id assigned by RequestID
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}
