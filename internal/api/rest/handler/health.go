package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports storage reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles the liveness endpoint.
type Health struct {
	db          Pinger
	environment string
	version     string
}

// NewHealth creates a new Health handler.
func NewHealth(db Pinger, environment, version string) *Health {
	return &Health{db: db, environment: environment, version: version}
}

// Handle responds with service status and a database reachability check.
func (h *Health) Handle(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{
		"status":      "OK",
		"message":     "auth service is running",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.environment,
		"version":     h.version,
	}

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "DEGRADED"
			body["message"] = "database unreachable"
		}
	}

	writeJSON(w, status, body)
}
