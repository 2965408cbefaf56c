// Package debugserver serves pprof profiles and Prometheus metrics on a
// separate port from the dashboard.
package debugserver

import (
	"context"
	"net/http"
	"time"

	"churndash/internal"
	"churndash/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the profiling and metrics endpoint
type Server struct {
	router  *chi.Mux
	metrics *metrics.Recorder
	logger  *internal.Logger
	http    *http.Server
}

// New creates a debug server listening on addr
func New(addr string, recorder *metrics.Recorder, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:  chi.NewRouter(),
		metrics: recorder,
		logger:  logger.Named("debug"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.http = &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Mount("/debug", middleware.Profiler())
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("debug server listening on %s (pprof at /debug/pprof/, metrics at /metrics)", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
