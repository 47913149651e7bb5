// Package main is the entry point for the relay.
//
// It loads configuration and the webhook routing table, probes the OneBot
// backend (startup aborts if the chat provider is unreachable), builds the
// HTTP chassis, and serves until SIGINT/SIGTERM triggers a graceful
// shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relaybot/internal/config"
	"relaybot/internal/core"
	"relaybot/internal/onebot"
	"relaybot/internal/relay"
)

// startupProbeTimeout bounds the initial OneBot connectivity check.
const startupProbeTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)

	routes, err := config.LoadRoutes(cfg.Routes)
	if err != nil {
		return fmt.Errorf("loading routing table: %w", err)
	}
	logger.Info("routing table loaded",
		"routes", routes.Len(),
		"identifiers", routes.Identifiers(),
	)

	client := onebot.NewClient(cfg.OneBot.APIURL, cfg.OneBot.UserAgent, cfg.OneBot.Timeout, logger)

	// Fail fast: an unreachable chat backend means every delivery would
	// fail silently, so refuse to start at all.
	probeCtx, cancel := context.WithTimeout(context.Background(), startupProbeTimeout)
	about, err := client.Describe(probeCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to onebot api: %w", err)
	}
	logger.Info("connected to onebot api",
		"app_name", about.AppName,
		"app_version", about.AppVersion,
		"protocol", about.Protocol,
	)

	dispatcher := relay.NewDispatcher(routes, client, logger)

	srv, err := core.NewServer(cfg, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.HealthProbes = append(srv.HealthProbes, client)
	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// runHTTPServer serves the chassis with graceful shutdown on signal.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates the structured JSON logger for the given level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
