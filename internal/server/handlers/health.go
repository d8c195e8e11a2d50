package handlers

import (
	"log/slog"
	"net/http"
)

// HealthHandler serves liveness checks
type HealthHandler struct {
	logger  *slog.Logger
	version string
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(logger *slog.Logger, version string) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		version: version,
	}
}

// HealthResponse represents the health check reply
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(h.logger, w, HealthResponse{Status: "ok", Version: h.version}, http.StatusOK)
}
