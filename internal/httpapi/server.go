// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"
)

// ServerConfig carries the listener settings for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server runs the account API over HTTP.
type Server struct {
	cfg        ServerConfig
	handler    http.Handler
	logger     *slog.Logger
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates an API server for the given handler.
func NewServer(cfg ServerConfig, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, handler: handler, logger: logger}
}

// Start begins serving. The returned channel receives any serve error
// and is closed on graceful shutdown.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server, waiting for in-flight
// requests up to the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown api server").Wrap(err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the bound address, or "" when not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
