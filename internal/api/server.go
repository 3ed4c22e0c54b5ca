// Package api serves the developer-facing publish endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/identity"
	"git.home.luguber.info/inful/docpublish/internal/observability"
	"git.home.luguber.info/inful/docpublish/internal/publish"
	"git.home.luguber.info/inful/docpublish/internal/records"
)

// DefaultMaxBodyBytes bounds a publish request body.
const DefaultMaxBodyBytes = 10 << 20

// Publisher runs one publish for an authenticated caller.
type Publisher interface {
	Publish(ctx context.Context, who identity.Identity, req publish.Request) (*publish.Report, error)
}

// PathLister lists the extension records owned by a caller.
type PathLister interface {
	Paths(ctx context.Context, owner string) ([]records.Record, error)
	Invalidate(owner string)
}

// Config configures the listener.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
}

// Dependencies are the collaborators behind the routes. Metrics may be nil.
type Dependencies struct {
	Publisher Publisher
	Paths     PathLister
	Resolver  identity.Resolver
	Metrics   http.Handler
	Logger    *slog.Logger
}

// Server represents the API server.
type Server struct {
	Addr    string
	router  *chi.Mux
	server  *http.Server
	deps    Dependencies
	adapter *derrors.HTTPErrorAdapter
	logger  *slog.Logger
	maxBody int64
}

// NewServer creates a new API server.
func NewServer(cfg Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = slog.New(observability.NewContextHandler(logger.Handler()))
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 120 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		Addr:    cfg.Addr,
		router:  chi.NewRouter(),
		deps:    deps,
		adapter: derrors.NewHTTPErrorAdapter(logger),
		logger:  logger,
		maxBody: cfg.MaxBodyBytes,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(panicRecovery(s.logger, s.adapter))

	s.router.Get("/health", s.handleHealth)
	if s.deps.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	s.router.Group(func(r chi.Router) {
		r.Use(bearerAuth(s.deps.Resolver, s.adapter))
		r.Put("/developer-path", s.handlePublish)
		r.Get("/developer-path", s.handleListPaths)
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server, waiting for in-flight publishes.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response represents a standard API success response.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// Error writes an error response through the error adapter.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	s.adapter.WriteErrorResponse(w, r, err)
}

// Success writes a success response.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
