package handlers

import (
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/kozaktomas/door-dashboard/internal/registry"
)

//go:embed templates/*.html
var templatesFS embed.FS

// PagesHandler renders the server-side dashboard pages.
type PagesHandler struct {
	service   *registry.Service
	templates *template.Template
}

// NewPagesHandler creates a pages handler with the embedded templates.
func NewPagesHandler(service *registry.Service) *PagesHandler {
	return &PagesHandler{
		service:   service,
		templates: template.Must(template.ParseFS(templatesFS, "templates/*.html")),
	}
}

func (h *PagesHandler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("failed to render %s: %v", name, err)
	}
}

// Index handles GET /: the main dashboard showing registered users.
func (h *PagesHandler) Index(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		log.Printf("failed to list users: %v", err)
		http.Error(w, "failed to load users", http.StatusInternalServerError)
		return
	}
	h.render(w, "index.html", map[string]any{"Users": users})
}

// Users handles GET /users: the user management page.
func (h *PagesHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		log.Printf("failed to list users: %v", err)
		http.Error(w, "failed to load users", http.StatusInternalServerError)
		return
	}
	h.render(w, "users.html", map[string]any{"Users": users})
}

// Register handles GET /register: the face capture page.
func (h *PagesHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register.html", nil)
}
