// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jeranaias/proofread/internal/logging"
	"github.com/jeranaias/proofread/internal/ollama"
	"github.com/jeranaias/proofread/internal/proofread"
	"github.com/jeranaias/proofread/internal/stats"
	"github.com/jeranaias/proofread/internal/status"
	"github.com/jeranaias/proofread/internal/templates"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr keeps the API on the loopback interface.
	DefaultAddr = "127.0.0.1:8765"

	// DefaultMaxBodyBytes bounds request bodies.
	DefaultMaxBodyBytes = 1 << 20

	// DefaultRequestTimeout applies to every route except proofreading.
	DefaultRequestTimeout = 30 * time.Second

	shutdownTimeout = 10 * time.Second
)

// ============================================================================
// DEPENDENCIES
// ============================================================================

// Proofreader runs corrections. *proofread.Service implements it.
type Proofreader interface {
	Proofread(ctx context.Context, req proofread.Request) (*proofread.Result, error)
	ProofreadStream(ctx context.Context, req proofread.Request, onChunk func(string)) (*proofread.Result, error)
}

// StatusSource reports connection state. *status.Monitor implements it.
type StatusSource interface {
	Check(ctx context.Context) status.Snapshot
}

// ModelLister lists installed models. *ollama.Client implements it.
type ModelLister interface {
	ListModelInfo(ctx context.Context) ([]ollama.ModelInfo, error)
}

// StatsSource reads usage statistics. *stats.Store implements it.
type StatsSource interface {
	Summary(ctx context.Context) (stats.Summary, error)
	Since(ctx context.Context, days int) (stats.Period, error)
}

// Config wires a Server. Proofreader, Status, Models and Templates are
// required; a nil Stats answers /v1/stats with 404.
type Config struct {
	Addr           string
	RateLimit      float64
	Burst          int
	MaxBodyBytes   int64
	Token          string
	AllowedOrigins []string
	RequestTimeout time.Duration
	MaxDiffCells   int

	// DefaultModel is reported by /v1/models.
	DefaultModel string
	Version      string

	Proofreader Proofreader
	Status      StatusSource
	Models      ModelLister
	Templates   *templates.Store
	Stats       StatsSource
	Logger      *slog.Logger
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the local HTTP API.
type Server struct {
	cfg     Config
	logger  *slog.Logger
	router  chi.Router
	started time.Time

	mu   sync.Mutex
	addr string
}

// New builds a Server and its routes.
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Proofreader == nil:
		return nil, errors.New("server: proofreader is required")
	case cfg.Status == nil:
		return nil, errors.New("server: status source is required")
	case cfg.Models == nil:
		return nil, errors.New("server: model lister is required")
	case cfg.Templates == nil:
		return nil, errors.New("server: template store is required")
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}

	s := &Server{
		cfg:     cfg,
		logger:  logging.OrDiscard(cfg.Logger).With("component", "server"),
		started: time.Now(),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the router with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(LoggingMiddleware(s.logger))
	r.Use(SecurityHeadersMiddleware())
	r.Use(CORSMiddleware(s.cfg.AllowedOrigins))
	r.Use(AuthMiddleware(s.cfg.Token, s.logger))

	r.Get("/health", s.handleHealth)

	limiter := NewRateLimiter(s.cfg.RateLimit, s.cfg.Burst)
	r.Route("/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(limiter, s.logger))
		r.Use(s.limitBody)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))

			r.Get("/status", s.handleStatus)
			r.Get("/models", s.handleModels)
			r.Get("/templates", s.handleTemplates)
			r.Get("/templates/{id}", s.handleTemplate)
			r.Get("/stats", s.handleStats)
			r.Post("/diff", s.handleDiff)
		})

		// Streams hold the connection open; the Ollama client enforces
		// its own timeouts.
		r.Post("/proofread", s.handleProofread)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", "addr", s.addr, "version", s.cfg.Version, "auth", s.cfg.Token != "")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address once serving, or the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != "" {
		return s.addr
	}
	return s.cfg.Addr
}
