package core

import (
	"io"
	"net/http"
)

// redactedHeaders lists header names whose values are masked in request
// logs. The webhook token is a shared secret and must never reach the logs.
var redactedHeaders = []string{
	"X-Gitlab-Token",
	"Authorization",
}

// MountRoutes registers the middleware chain and all endpoints.
//
// Ordering: Recoverer is outermost to catch every panic; the context
// timeout bounds each request before any work happens; the request ID is
// generated before logging so log lines correlate.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.Config.Server.RequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger, redactedHeaders))

	s.router.Get("/", s.HandleHeartbeat)
	s.router.Get("/health", s.HandleHealth)
	s.router.Post("/{identifier}", s.Webhook.ServeHTTP)
}

// HandleHeartbeat is the bare liveness endpoint. It predates /health and
// stays for compatibility with existing monitors.
func (s *Server) HandleHeartbeat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "success")
}
