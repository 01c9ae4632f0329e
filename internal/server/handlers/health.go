// Package handlers implements the gateway HTTP handlers.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
)

// HealthChecker reports the health of one dependency.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthCheckerFunc adapts a function to HealthChecker.
type HealthCheckerFunc func(ctx context.Context) error

// CheckHealth calls f.
func (f HealthCheckerFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// HealthManager aggregates registered checkers.
type HealthManager struct {
	version string

	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewHealthManager creates a manager reporting version.
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{version: version, checkers: map[string]HealthChecker{}}
}

// RegisterChecker adds or replaces the checker called name.
func (m *HealthManager) RegisterChecker(name string, c HealthChecker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = c
}

// Check runs every checker and reports whether all passed.
func (m *HealthManager) Check(ctx context.Context) (HealthResponse, bool) {
	m.mu.RLock()
	names := make([]string, 0, len(m.checkers))
	for name := range m.checkers {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)

	resp := HealthResponse{Status: statusHealthy, Version: m.version, Checks: map[string]string{}}
	healthy := true
	for _, name := range names {
		m.mu.RLock()
		c := m.checkers[name]
		m.mu.RUnlock()

		if err := c.CheckHealth(ctx); err != nil {
			resp.Checks[name] = statusUnhealthy + ": " + err.Error()
			healthy = false
			continue
		}
		resp.Checks[name] = statusHealthy
	}
	if !healthy {
		resp.Status = statusUnhealthy
	}
	return resp, healthy
}

// HealthHandler serves the aggregated health status.
func (m *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp, healthy := m.Check(r.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// LiveHandler reports process liveness without running checkers.
func (m *HealthManager) LiveHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: statusHealthy, Version: m.version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
