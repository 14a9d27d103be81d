package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Startup steps reported by /healthz while the server boots
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepServices   = "Initializing services"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	current  string
	progress int
	steps    []StartupStep
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// NewStartupStatus creates a tracker for the given step names
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
			break
		}
	}

	if len(s.steps) == 0 {
		return
	}
	completed := 0
	for _, step := range s.steps {
		if step.Completed {
			completed++
		}
	}
	s.progress = (completed * 100) / len(s.steps)
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.current = "Server ready"
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Pinger is satisfied by *database.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

type healthResponse struct {
	Status   string        `json:"status"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
	Database string        `json:"database"`
}

// HealthHandler answers liveness probes with startup progress and a database ping
func HealthHandler(status *StartupStatus, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status.mu.RLock()
		resp := healthResponse{
			Status:   "starting",
			Current:  status.current,
			Progress: status.progress,
			Steps:    append([]StartupStep(nil), status.steps...),
			Database: "unknown",
		}
		ready := status.ready
		status.mu.RUnlock()

		code := http.StatusServiceUnavailable
		if ready {
			resp.Status = "ok"
			code = http.StatusOK
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				resp.Status = "degraded"
				resp.Database = "unreachable"
				code = http.StatusServiceUnavailable
			} else {
				resp.Database = "ok"
			}
		}

		w.Header().Set("Cache-Control", "no-store")
		respondJSON(w, code, resp)
	}
}
