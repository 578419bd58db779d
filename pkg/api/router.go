package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Qetrox/esp32-gps-follower/pkg/metrics"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	// Device-facing ingest. The deployed firmware pushes with GET and query
	// parameters; JSON POST is the native form.
	r.With(s.requireSecret).Get("/receivedata", s.handleIngest)
	r.With(s.requireSecret).Post("/receivedata", s.handleIngest)

	// Viewer reads, no auth
	r.Get("/data", s.handleLatestFix)
	r.Get("/status", s.handleStatus)
	r.Get("/poi", s.handlePOIs)
	r.Get("/uiconfig", s.handleUIConfig)
	r.Get("/ws", s.hub.handleWS)

	// Admin writes and the credential list, shared secret required. The
	// credential list has no unauthenticated read path: it contains passwords.
	r.Group(func(r chi.Router) {
		r.Use(s.requireSecret)
		r.Put("/poi", s.handleSetPOIs)
		r.Put("/uiconfig", s.handleSetUIConfig)
		r.Get("/wifi", s.handleListNetworks)
		r.Post("/wifi", s.handleUpsertNetwork)
		r.Delete("/wifi/{ssid}", s.handleRemoveNetwork)
	})

	r.Handle("/metrics", metrics.Handler())
	r.Handle("/healthz", metrics.HealthHandler())

	if s.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}

	return r
}
