package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/door-dashboard/internal/registry"
)

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondSuccess sends the dashboard's success envelope, merging any extra
// fields into it.
func respondSuccess(w http.ResponseWriter, message string, extra map[string]any) {
	body := map[string]any{
		"status":  "success",
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	respondJSON(w, http.StatusOK, body)
}

// respondError sends the dashboard's error envelope with a status code
// derived from the error kind.
func respondError(w http.ResponseWriter, err error) {
	message := "Internal error"
	var regErr *registry.Error
	if errors.As(err, &regErr) {
		message = regErr.Message
	} else if err != nil {
		message = err.Error()
	}
	respondJSON(w, statusForKind(registry.KindOf(err)), map[string]any{
		"status":  "error",
		"message": message,
	})
}

// statusForKind maps registry error kinds onto HTTP status codes.
func statusForKind(kind registry.Kind) int {
	switch kind {
	case registry.KindValidation:
		return http.StatusBadRequest
	case registry.KindConflict:
		return http.StatusConflict
	case registry.KindEncodingFailure:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
