// Package server exposes a FileStore over a read-only HTTP gateway.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/3leaps/bucketfs/internal/server/handlers"
	"github.com/3leaps/bucketfs/internal/server/middleware"
	"github.com/3leaps/bucketfs/pkg/adapter"
)

// VersionInfo is served by /version.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Timeouts bounds the HTTP server.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

// Server is the HTTP gateway.
type Server struct {
	host     string
	port     int
	store    adapter.FileStore
	version  VersionInfo
	timeouts Timeouts
	logger   *zap.Logger
	checkers map[string]handlers.HealthChecker
	health   *handlers.HealthManager

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithStore mounts the file routes for store.
func WithStore(store adapter.FileStore) Option {
	return func(s *Server) { s.store = store }
}

// WithVersion sets the /version payload.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

// WithTimeouts sets the server timeouts. Zero values keep the defaults.
func WithTimeouts(t Timeouts) Option {
	return func(s *Server) {
		if t.Read > 0 {
			s.timeouts.Read = t.Read
		}
		if t.Write > 0 {
			s.timeouts.Write = t.Write
		}
		if t.Idle > 0 {
			s.timeouts.Idle = t.Idle
		}
		if t.Shutdown > 0 {
			s.timeouts.Shutdown = t.Shutdown
		}
	}
}

// WithLogger sets the access and panic logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHealthChecker registers an extra /health checker.
func WithHealthChecker(name string, c handlers.HealthChecker) Option {
	return func(s *Server) { s.checkers[name] = c }
}

// New creates a server listening on host:port once Start is called.
func New(host string, port int, opts ...Option) *Server {
	s := &Server{
		host:    host,
		port:    port,
		version: VersionInfo{Version: "dev"},
		timeouts: Timeouts{
			Read:     30 * time.Second,
			Write:    30 * time.Second,
			Idle:     120 * time.Second,
			Shutdown: 10 * time.Second,
		},
		logger:   zap.NewNop(),
		checkers: map[string]handlers.HealthChecker{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.health = handlers.NewHealthManager(s.version.Version)
	for name, c := range s.checkers {
		s.health.RegisterChecker(name, c)
	}
	s.router = s.routes()
	return s
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RecoveryWithLogger(s.logger))
	r.Use(middleware.AccessLog(s.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusNotFound, middleware.CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.health.HealthHandler)
	r.Get("/health/live", s.health.LiveHandler)
	r.Get("/health/ready", s.health.HealthHandler)
	r.Get("/version", s.versionHandler)

	if s.store != nil {
		files := handlers.NewFiles(s.store, s.logger)
		r.Get("/files/*", files.Get)
		r.Head("/files/*", files.Head)
		r.Get("/list", files.List)
		r.Get("/url/*", files.URL)
	}
	return r
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.version)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.timeouts.Read,
		WriteTimeout: s.timeouts.Write,
		IdleTimeout:  s.timeouts.Idle,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Gateway listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.Shutdown)
	defer cancel()
	s.logger.Info("Gateway shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
