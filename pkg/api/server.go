package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Qetrox/esp32-gps-follower/pkg/events"
	"github.com/Qetrox/esp32-gps-follower/pkg/log"
	"github.com/Qetrox/esp32-gps-follower/pkg/manager"
)

// Server is the HTTP front of the follower: ingest, latest-fix reads, the
// credential distributor, pass-through documents and the live viewer feed.
type Server struct {
	manager *manager.Manager
	broker  *events.Broker
	secret  string

	// staticDir is served at /; empty disables static serving.
	staticDir string

	logger zerolog.Logger
	http   *http.Server
	hub    *hub
}

// Config holds server configuration
type Config struct {
	Manager   *manager.Manager
	Broker    *events.Broker
	Secret    string
	StaticDir string
}

// NewServer creates a new API server
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Manager == nil {
		return nil, fmt.Errorf("api server requires a manager")
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("api server requires a shared secret")
	}

	s := &Server{
		manager:   cfg.Manager,
		broker:    cfg.Broker,
		secret:    cfg.Secret,
		staticDir: cfg.StaticDir,
		logger:    log.WithComponent("api"),
	}
	s.hub = newHub(cfg.Broker, s.logger)
	return s, nil
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	s.hub.start()

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("HTTP API listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully drains in-flight requests and closes the websocket hub.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
