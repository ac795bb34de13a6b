// Package server exposes plans over a loopback JSON API for a browser
// front-end. It shares the generator, store and exporter with the CLI.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/goalcal/goalcal/internal/ai"
	"github.com/goalcal/goalcal/internal/export"
	"github.com/goalcal/goalcal/internal/storage"
	"github.com/goalcal/goalcal/internal/types"
)

// Generator is the part of ai.Generator the API needs.
type Generator interface {
	TryGenerate(ctx context.Context, input types.GoalInput) (*ai.Result, error)
	CircuitState() ai.CircuitState
}

// Config holds server configuration
type Config struct {
	// Addr is the listen address (default: 127.0.0.1:8787)
	Addr string

	// AllowedOrigins are the CORS origins accepted
	AllowedOrigins []string

	// HandlerTimeout bounds each request, generation included (default: 2m)
	HandlerTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown (default: 5s)
	ShutdownTimeout time.Duration

	// Export configures calendar file rendering
	Export export.Options

	// Now is overridable for tests
	Now func() time.Time
}

// Server is the HTTP API
type Server struct {
	cfg       Config
	store     *storage.PlanStore
	generator Generator
	router    chi.Router
}

// New wires the routes. store and generator are required.
func New(cfg *Config, store *storage.PlanStore, generator Generator) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}

	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8787"
	}
	if c.HandlerTimeout <= 0 {
		c.HandlerTimeout = 2 * time.Minute
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	s := &Server{cfg: c, store: store, generator: generator}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.HandlerTimeout))

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	})
	r.Use(corsMiddleware.Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/plans", s.createPlan)
		r.Get("/plans", s.listPlans)
		r.Delete("/plans", s.clearPlans)

		r.Route("/plans/{goalId}", func(r chi.Router) {
			r.Get("/", s.getPlan)
			r.Delete("/", s.deletePlan)
			r.Get("/summary", s.planSummary)
			r.Get("/calendar", s.planCalendar)
			r.Get("/days/{date}", s.planDay)
			r.Patch("/schedule", s.patchSchedule)
			r.Put("/progress", s.putProgress)
			r.Get("/export.ics", s.exportICS)
		})

		r.Get("/export/instructions", s.exportInstructions)
	})

	r.Get("/health", s.health)
	return r
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", s.cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
