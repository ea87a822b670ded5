// Package api exposes the workflow engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/flowboard/pkg/observability"
)

// Server is the HTTP API server.
type Server struct {
	mux      *http.ServeMux
	server   *http.Server
	logger   *slog.Logger
	statuses *StatusHandler
	tasks    *TaskHandler
	health   *observability.HealthRegistry
	version  string
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// Version is reported by the health endpoint.
	Version string
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "127.0.0.1:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, statuses *StatusHandler, tasks *TaskHandler, health *observability.HealthRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if health == nil {
		health = observability.NewHealthRegistry()
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		statuses: statuses,
		tasks:    tasks,
		health:   health,
		version:  cfg.Version,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Statuses
	s.mux.HandleFunc("GET /api/v1/statuses", s.scoped(s.statuses.List))
	s.mux.HandleFunc("POST /api/v1/statuses", s.scoped(s.statuses.Create))
	s.mux.HandleFunc("GET /api/v1/statuses/default", s.scoped(s.statuses.GetDefault))
	s.mux.HandleFunc("GET /api/v1/statuses/transitions", s.scoped(s.statuses.Matrix))
	s.mux.HandleFunc("PUT /api/v1/statuses/order", s.scoped(s.statuses.Reorder))
	s.mux.HandleFunc("GET /api/v1/statuses/{statusID}", s.scoped(s.statuses.Get))
	s.mux.HandleFunc("PATCH /api/v1/statuses/{statusID}", s.scoped(s.statuses.Update))
	s.mux.HandleFunc("DELETE /api/v1/statuses/{statusID}", s.scoped(s.statuses.Delete))
	s.mux.HandleFunc("PUT /api/v1/statuses/{statusID}/default", s.scoped(s.statuses.SetDefault))
	s.mux.HandleFunc("GET /api/v1/statuses/{statusID}/transitions", s.scoped(s.statuses.AvailableTransitions))
	s.mux.HandleFunc("PUT /api/v1/statuses/{statusID}/transitions", s.scoped(s.statuses.SetTransitions))

	// Tasks
	s.mux.HandleFunc("GET /api/v1/tasks", s.scoped(s.tasks.List))
	s.mux.HandleFunc("POST /api/v1/tasks", s.scoped(s.tasks.Create))
	s.mux.HandleFunc("GET /api/v1/tasks/{taskID}", s.scoped(s.tasks.Get))
	s.mux.HandleFunc("PUT /api/v1/tasks/{taskID}/status", s.scoped(s.tasks.ChangeStatus))
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// handleHealth reports the aggregated component health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	overall := s.health.Check(r.Context())
	status := http.StatusOK
	if overall.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{OverallHealth: overall, Version: s.version})
}

type healthResponse struct {
	observability.OverallHealth
	Version string `json:"version,omitempty"`
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// SetAddr changes the listen address. It has no effect once started.
func (s *Server) SetAddr(addr string) {
	s.server.Addr = addr
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Log error but can't do much at this point
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}
