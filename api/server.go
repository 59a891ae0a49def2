// Package api exposes the assistant over HTTP REST.
//
// Endpoints:
//
//	POST   /api/chat                 → answer one message
//	GET    /api/chats                → list conversations
//	GET    /api/chats/{id}/messages  → conversation transcript
//	DELETE /api/chats/{id}           → delete a conversation
//	GET    /health                   → liveness probe
//	GET    /ready                    → readiness probe
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Chiragbhatt711/ai-jarvis/internal/chat"
	"github.com/Chiragbhatt711/ai-jarvis/internal/history"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = ":8000"

	// ShutdownTimeout is the maximum wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout prevents Slowloris-style connection holding.
	ReadHeaderTimeout = 10 * time.Second

	ReadTimeout  = 30 * time.Second
	WriteTimeout = 120 * time.Second
	IdleTimeout  = 120 * time.Second
)

// Server is the HTTP server for the assistant API.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger

	cors []string
}

// NewServer creates a server with all routes registered. corsOrigins
// lists the origins allowed to call the API from a browser.
func NewServer(svc *chat.Service, store history.Store, corsOrigins []string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{mux: mux, logger: logger, cors: corsOrigins}

	newHealthHandler(store, logger).registerRoutes(mux)
	newChatHandler(svc, logger).registerRoutes(mux)
	newChatsHandler(store, logger).registerRoutes(mux)

	return s
}

// Handler returns the full handler chain: recovery → cors → logging.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		corsMiddleware(s.cors),
		loggingMiddleware(s.logger),
	)
}

// Run starts the server and blocks until the context is cancelled, then
// shuts down gracefully.
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
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
