// Package api serves profile rankings over HTTP
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/config"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

// Server owns the HTTP listener for the ranking API
type Server struct {
	http *http.Server
	log  *logger.Logger
	env  string

	mu       sync.Mutex
	listener net.Listener
}

// New prepares a server for cfg.APIPort; nothing is bound until Start.
// Port "0" picks a free port, reported by Addr.
func New(cfg *config.Config, log *logger.Logger, handler http.Handler) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		http: &http.Server{
			Addr:              net.JoinHostPort("", cfg.APIPort),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       time.Minute,
		},
		log: log,
		env: cfg.Env,
	}
}

// Start binds the port and blocks serving requests. It returns nil once
// Shutdown has closed the server.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.WithFields(map[string]interface{}{
		"addr": ln.Addr().String(),
		"env":  s.env,
	}).Info("API server listening")

	err = s.http.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("serve: %w", err)
}

// Addr is the bound address, empty before Start has listened
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down API server")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
