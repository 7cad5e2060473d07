// Package api exposes the chat engine over HTTP.
//
// Endpoints:
//
//	POST /api/chat            - streaming chat (typed line frames)
//	POST /api/debug/retrieval - retrieval inspection (JSON)
//	GET  /healthz             - liveness probe
//	GET  /readyz              - readiness probe
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: recovery, request logging, body limits
//   - health.go: liveness and readiness probes
//   - chat.go: the streaming chat endpoint
//   - debug.go: retrieval inspection endpoint
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vintra/vintra/internal/log"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout prevents Slowloris-style header trickling.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout must cover a full buffered generation turn, which
	// can take minutes on long answers.
	WriteTimeout = 5 * time.Minute

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the chat API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health *HealthHandler
	chat   *ChatHandler
	debug  *DebugHandler
}

// NewServer creates a server with all routes registered.
func NewServer(chat *ChatHandler, debug *DebugHandler, health *HealthHandler, logger log.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		mux:    mux,
		logger: logger,
		health: health,
		chat:   chat,
		debug:  debug,
	}

	s.health.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)
	s.debug.RegisterRoutes(mux)
	return s
}

// Handler returns the mux with middleware applied.
// Order: recovery -> logging -> handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)
}

// Run starts the server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
