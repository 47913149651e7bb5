// Package core provides the HTTP chassis for the relay. It owns the chi
// router, the cross-cutting middleware (panic recovery, request IDs,
// request logging with token redaction), the heartbeat and health
// endpoints, and mounts the webhook dispatcher.
package core

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"relaybot/internal/config"
)

// Server bundles the router with its dependencies so tests can construct
// the full handler chain without a network listener.
type Server struct {
	Config  *config.Config
	Logger  *slog.Logger
	Webhook http.Handler

	// HealthProbes are checked concurrently by GET /health. The OneBot
	// reachability probe is registered here by the entry point.
	HealthProbes []HealthProbe

	router *chi.Mux
}

// NewServer validates dependencies and prepares the router. The caller
// mounts routes afterwards via MountRoutes; the separation lets tests
// customize registration.
func NewServer(cfg *config.Config, webhook http.Handler, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if webhook == nil {
		return nil, fmt.Errorf("webhook handler must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:  cfg,
		Logger:  logger,
		Webhook: webhook,
		router:  chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
