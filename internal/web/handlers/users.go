package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/door-dashboard/internal/metrics"
	"github.com/kozaktomas/door-dashboard/internal/registry"
)

// UsersHandler handles user registration, direct addition and deletion.
type UsersHandler struct {
	service   *registry.Service
	collector *metrics.Collector
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(service *registry.Service, collector *metrics.Collector) *UsersHandler {
	return &UsersHandler{
		service:   service,
		collector: collector,
	}
}

// Register handles POST /register_user: form fields "name" and "image"
// (base64 or data URL). On success the user has a capture, an encoding
// and a database row; on encoding failure the capture is rolled back.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, registry.NewValidationError("Failed to parse form"))
		return
	}

	name := r.FormValue("name")
	image := r.FormValue("image")

	if err := h.service.Register(r.Context(), name, image); err != nil {
		log.Printf("registration failed for %q: %v", sanitizeForLog(name), err)
		h.collector.RecordRegistration(registry.KindOf(err).String())
		respondError(w, err)
		return
	}

	h.collector.RecordRegistration("success")
	respondSuccess(w, fmt.Sprintf("User %s registered successfully with face capture.", name), nil)
}

// Add handles POST /add_user: registers a name without a capture. The
// user stays untrained until a face is captured later.
func (h *UsersHandler) Add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, registry.NewValidationError("Failed to parse form"))
		return
	}

	name := r.FormValue("name")

	if err := h.service.AddUser(r.Context(), name); err != nil {
		log.Printf("add user failed for %q: %v", sanitizeForLog(name), err)
		respondError(w, err)
		return
	}

	respondSuccess(w,
		fmt.Sprintf("User %s added successfully. Please capture face image for recognition.", name),
		map[string]any{"user_name": name})
}

// Delete handles GET /delete_user/{username}. Deleting an unknown user
// still succeeds.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.service.Delete(r.Context(), username); err != nil {
		log.Printf("delete failed for %q: %v", sanitizeForLog(username), err)
		respondError(w, err)
		return
	}

	h.collector.RecordDeletion()
	respondSuccess(w, fmt.Sprintf("User %s deleted", username), nil)
}
