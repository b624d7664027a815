package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a health-checkable dependency.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckResult represents a single dependency check result.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// Ready handles the /ready endpoint. Any failing dependency turns the
// response into a 503.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckResult)
	healthy := true

	for name, dep := range map[string]Pinger{"database": h.db, "redis": h.redis} {
		if dep == nil {
			continue
		}
		if err := dep.HealthCheck(ctx); err != nil {
			checks[name] = CheckResult{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			checks[name] = CheckResult{Status: "ok"}
		}
	}

	status := http.StatusOK
	label := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		label = "not_ready"
	}

	respondJSON(w, status, ReadyResponse{
		Status:    label,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}
