package logging

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// Reporter forwards server errors and panics to Sentry when a DSN is configured
type Reporter struct {
	initialized bool
}

// NewReporter initializes Sentry. An empty DSN yields a disabled reporter.
func NewReporter(dsn, environment string, logger *zap.Logger) *Reporter {
	if dsn == "" {
		logger.Info("SENTRY_DSN not set, error reporting disabled")
		return &Reporter{}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		logger.Warn("sentry initialization failed", zap.Error(err))
		return &Reporter{}
	}

	logger.Info("sentry initialized", zap.String("environment", environment))
	return &Reporter{initialized: true}
}

// CaptureRequestError sends err with request context attached
func (r *Reporter) CaptureRequestError(req *http.Request, err error) {
	if r == nil || !r.initialized || err == nil {
		return
	}
	hub := sentry.CurrentHub().Clone()
	hub.Scope().SetRequest(req)
	hub.CaptureException(err)
}

// RecoverRequest reports a recovered panic value
func (r *Reporter) RecoverRequest(req *http.Request, recovered interface{}) {
	if r == nil || !r.initialized {
		return
	}
	hub := sentry.CurrentHub().Clone()
	hub.Scope().SetRequest(req)
	hub.Recover(recovered)
}

// Flush waits for buffered events to be sent
func (r *Reporter) Flush(timeout time.Duration) bool {
	if r == nil || !r.initialized {
		return true
	}
	return sentry.Flush(timeout)
}
