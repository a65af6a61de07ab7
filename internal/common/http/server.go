// internal/common/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"alloy-predictor/internal/common/config"
	"alloy-predictor/internal/common/logger"
)

// Server wraps http.Server with the configured timeouts.
type Server struct {
	server *http.Server
	log    logger.Logger
}

func NewServer(cfg config.ServerConfig, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.WriteTimeout),
			IdleTimeout:  config.GetDuration(cfg.IdleTimeout),
		},
		log: log,
	}
}

// Serve accepts connections on l and blocks until Stop.
func (s *Server) Serve(l net.Listener) error {
	s.log.Info("HTTP server listening", map[string]interface{}{"addr": l.Addr().String()})

	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server", nil)

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) Addr() string {
	return s.server.Addr
}
