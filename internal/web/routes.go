package web

import (
	"github.com/kozaktomas/door-dashboard/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	// Create handlers
	pagesHandler := handlers.NewPagesHandler(s.service)
	usersHandler := handlers.NewUsersHandler(s.service, s.collector)
	logsHandler := handlers.NewLogsHandler(s.service)

	// Pages
	s.router.Get("/", pagesHandler.Index)
	s.router.Get("/users", pagesHandler.Users)
	s.router.Get("/register", pagesHandler.Register)

	// JSON API (paths are a compatibility contract with existing clients)
	s.router.Get("/logs", logsHandler.List)
	s.router.Post("/register_user", usersHandler.Register)
	s.router.Post("/add_user", usersHandler.Add)
	s.router.Get("/delete_user/{username}", usersHandler.Delete)

	// Operational endpoints
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Method("GET", "/metrics", s.collector.Handler())
}
