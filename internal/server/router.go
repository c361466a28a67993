package server

import (
	"net/http"

	"github.com/ellisd4/tagsync/internal/server/handlers"
	"github.com/ellisd4/tagsync/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(s.client, s.cache, s.wsHub, s.upgrader, s.logger, s.startTime)
	s.registerRoutes(mux, h)

	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)

	mux.HandleFunc("GET "+prefix+"/test", h.HandleTest)
	mux.HandleFunc("POST "+prefix+"/sync", h.HandleSync)
	mux.HandleFunc("GET "+prefix+"/sync/last", h.HandleLastSync)
	mux.HandleFunc("GET "+prefix+"/status", h.HandleStatus)
	mux.HandleFunc("GET "+prefix+"/events", h.HandleWebSocket)

	if s.config.MetricsEnabled {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// applyMiddleware wraps handler with the middleware chain. Metrics sits
// innermost so it sees the matched route pattern.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	authConfig := middleware.DefaultAuthConfig()
	authConfig.Enabled = cfg.AuthEnabled()
	authConfig.APIKey = cfg.APIKey
	if cfg.AuthHeader != "" {
		authConfig.HeaderName = cfg.AuthHeader
	}
	authConfig.PublicPaths = append(authConfig.PublicPaths, cfg.PathPrefix+"/health")

	return middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
		middleware.Auth(authConfig, s.logger),
		middleware.Metrics(s.metrics),
	)(handler)
}
