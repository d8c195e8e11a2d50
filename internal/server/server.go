// Package server assembles the HTTP surface: routing, middleware
// chains, and the listener lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mbessonov/audioscribe/internal/server/handlers"
	"github.com/mbessonov/audioscribe/internal/server/middleware"
)

// Rate limit for the unauthenticated auth endpoints
const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Server timeouts
const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server is the configured HTTP server
type Server struct {
	logger *slog.Logger
	srv    *http.Server
}

// Handlers groups everything the router mounts
type Handlers struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Transcripts *handlers.TranscriptsHandler
}

// New builds the server with its full middleware and routing stack.
// No read or write deadline is set on the whole request: uploads of
// legitimate size over slow links must not be cut off, the size
// ceiling inside the pipeline bounds them instead.
func New(logger *slog.Logger, address string, tokens middleware.TokenValidator, h Handlers) *Server {
	mux := http.NewServeMux()

	auth := middleware.AuthMiddleware(logger, tokens)
	limit := middleware.RateLimitMiddleware(authRateLimit, authRateWindow, logger)

	mux.HandleFunc("GET /health", h.Health.Health)

	mux.Handle("POST /api/v1/auth/register", limit(http.HandlerFunc(h.Auth.Register)))
	mux.Handle("POST /api/v1/auth/login", limit(http.HandlerFunc(h.Auth.Login)))
	mux.Handle("POST /api/v1/auth/refresh", limit(http.HandlerFunc(h.Auth.Refresh)))

	mux.Handle("POST /api/v1/auth/logout", auth(http.HandlerFunc(h.Auth.Logout)))
	mux.Handle("GET /api/v1/me", auth(http.HandlerFunc(h.Auth.Me)))

	mux.Handle("POST /api/v1/transcripts", auth(http.HandlerFunc(h.Transcripts.Upload)))
	mux.Handle("GET /api/v1/transcripts", auth(http.HandlerFunc(h.Transcripts.List)))
	mux.Handle("GET /api/v1/transcripts/{id}", auth(http.HandlerFunc(h.Transcripts.Get)))
	mux.Handle("DELETE /api/v1/transcripts/{id}", auth(http.HandlerFunc(h.Transcripts.Delete)))

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger)(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return &Server{
		logger: logger,
		srv: &http.Server{
			Addr:              address,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", slog.String("address", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.srv.Shutdown(shutdownCtx)
}
