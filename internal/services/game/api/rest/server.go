package rest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/manhuntgame/manhunt/internal/platform/timeouts"
	"github.com/manhuntgame/manhunt/internal/services/game/admingrant"
	"github.com/manhuntgame/manhunt/internal/services/game/app"
)

// Config defines the inputs for the game HTTP surface.
type Config struct {
	HTTPAddr string
	// AdminAuth enables grant verification on /admin routes when set.
	AdminAuth *admingrant.Config
}

// Server hosts the player and admin HTTP endpoints.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewServer wires the handler onto an http.Server with the standard
// header-read timeout.
func NewServer(cfg Config, svc *app.Service) *Server {
	handler := NewHandler(svc, cfg.AdminAuth)
	return &Server{
		httpAddr: cfg.HTTPAddr,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("game server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	serveErr := make(chan error, 1)
	log.Printf("game listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
