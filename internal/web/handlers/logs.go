package handlers

import (
	"log"
	"net/http"

	"github.com/kozaktomas/door-dashboard/internal/registry"
)

// LogsHandler serves recent access log entries.
type LogsHandler struct {
	service *registry.Service
}

// NewLogsHandler creates a new logs handler.
func NewLogsHandler(service *registry.Service) *LogsHandler {
	return &LogsHandler{service: service}
}

// List handles GET /logs: a JSON array of the most recent access events,
// newest first, capped at 100 entries.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.RecentLogs(r.Context())
	if err != nil {
		log.Printf("failed to load access logs: %v", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
