// Package debug serves operational endpoints for long-running sessions:
// Prometheus metrics and a liveness check, on a loopback listener the
// terminal UI never touches.
package debug

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/llm-council/council-client/pkg/logger"
)

// Server is the debug HTTP listener.
type Server struct {
	http *http.Server
	log  *logger.Logger
}

// New builds a debug server bound to addr.
func New(addr string, log *logger.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.log.Info("debug listener started", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("debug listener error", zap.Error(err))
		}
	}()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Warn("debug listener shutdown", zap.Error(err))
	}
}
