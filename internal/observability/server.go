// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package observability serves prometheus metrics, health probes and a JSON
// snapshot of the simulated host.
package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"

	"github.com/hostbind/hostbind/internal/script"
	"github.com/hostbind/hostbind/pkg/meta"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/sys"
)

// ReadinessChecker returns whether the service is ready.
type ReadinessChecker func() bool

// Registrar adds collectors to a registry.
type Registrar func(prometheus.Registerer)

// StatusFunc returns a JSON-encodable snapshot served on /debug/host.
type StatusFunc func() any

// DefaultRegistrars registers the collectors of the binding layer: calls,
// handle operations and script runs.
func DefaultRegistrars() []Registrar {
	return []Registrar{meta.RegisterMetrics, obj.RegisterMetrics, script.RegisterMetrics}
}

// Option configures a Server.
type Option func(*Server)

// WithReadiness replaces the readiness check. The default reports ready
// while a host interface is loaded.
func WithReadiness(check ReadinessChecker) Option {
	return func(s *Server) {
		s.isReady = check
	}
}

// WithRegistrars replaces DefaultRegistrars.
func WithRegistrars(registrars ...Registrar) Option {
	return func(s *Server) {
		s.registrars = registrars
	}
}

// WithHostStatus serves the result of fn on /debug/host.
func WithHostStatus(fn StatusFunc) Option {
	return func(s *Server) {
		s.status = fn
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// Server provides HTTP endpoints for observability (metrics and health probes).
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	registrars []Registrar
	isReady    ReadinessChecker
	status     StatusFunc
	logger     *slog.Logger
	running    atomic.Bool
}

// NewServer creates a new observability server. addr is a "host:port"
// listen address.
func NewServer(addr string, opts ...Option) *Server {
	s := &Server{
		addr:       addr,
		registrars: DefaultRegistrars(),
		isReady:    sys.IsLoaded,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// A private registry keeps the global one clean.
	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(collectors.NewGoCollector())
	s.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	for _, register := range s.registrars {
		register(s.registry)
	}
	return s
}

// Registry returns the registry served on /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Start begins serving. The returned channel receives a serve error, if
// any, and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.In("observability").Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.In("observability").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)
	if s.status != nil {
		mux.HandleFunc("/debug/host", s.handleHostStatus)
	}

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		// httpSrv, not s.httpServer: a later Start may replace the field.
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server. Stopping a server that is not
// running does nothing.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.In("observability").With("operation", "shutdown").Wrap(err)
		}
	}

	s.logger.Info("observability server stopped")
	return nil
}

// Addr returns the address the server is listening on, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if s.isReady == nil || s.isReady() {
		writeText(w, http.StatusOK, "ok")
		return
	}
	writeText(w, http.StatusServiceUnavailable, "not ready")
}

func (s *Server) handleHostStatus(w http.ResponseWriter, _ *http.Request) {
	data, err := json.Marshal(s.status())
	if err != nil {
		s.logger.Error("encode host status", "error", err)
		writeText(w, http.StatusInternalServerError, "cannot encode status")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // client may disconnect
	w.Write(append(data, '\n'))
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte(body + "\n"))
}
