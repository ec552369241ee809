package server

import (
	"log"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"searchrank/internal/config"
	"searchrank/internal/handlers/api"
	"searchrank/internal/middleware"
	"searchrank/internal/search"
)

// Dependencies are the wired components the routes dispatch to.
type Dependencies struct {
	Search *search.Service
	Auth   *middleware.AuthMiddleware
	Limits config.LimitsConfig
	Checks map[string]api.Checker
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(deps Dependencies) {
	searchHandler := api.NewSearchHandler(deps.Search, deps.Limits)
	healthHandler := api.NewHealthHandler(deps.Checks)

	s.App.Get("/healthz", healthHandler.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Search API
	searchAPI := s.App.Group("/api/search")
	searchAPI.Post("/", searchHandler.Record)
	searchAPI.Post("/bulk", searchHandler.RecordBatch)
	searchAPI.Post("/fast", searchHandler.IngestFast)
	searchAPI.Get("/popular", searchHandler.Popular)
	searchAPI.Get("/popular/durable", searchHandler.PopularDurable)
	searchAPI.Get("/recent", searchHandler.Recent)
	searchAPI.Get("/recent/durable", searchHandler.RecentDurable)
	searchAPI.Get("/autocomplete", searchHandler.Autocomplete)
	searchAPI.Get("/compare", searchHandler.Compare)
	searchAPI.Get("/statistics", searchHandler.Statistics)

	// Admin routes - bearer token required when OIDC is configured
	if !s.Cfg.IsAdminAuthEnabled() {
		log.Println("Admin API (/api/admin) does not require authentication. Set OIDC_ISSUER to enable.")
	}
	admin := s.App.Group("/api/admin", deps.Auth.RequireToken)
	admin.Get("/ranked", searchHandler.RankedSnapshot)
	admin.Delete("/ranked", searchHandler.ClearRanked)
}
