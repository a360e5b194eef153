// Package api serves the CMS preview API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/campus/internal/eventstore"
	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/preview"
	"git.home.luguber.info/inful/campus/internal/search"
	"git.home.luguber.info/inful/campus/internal/site"
)

// Searcher queries a local search index.
type Searcher interface {
	Search(query string, limit int) ([]search.Hit, error)
}

// Server represents the preview API server.
type Server struct {
	Addr   string
	router *chi.Mux
	server *http.Server

	previews *preview.Manager
	site     *site.Site
	index    Searcher
	history  eventstore.Store
	metrics  http.Handler
	errs     *ferrors.HTTPErrorAdapter
}

// Option configures a Server.
type Option func(*Server)

// WithSite enables /page, assembling page data through s. s should read
// through the preview overlay so that pages show drafts.
func WithSite(s *site.Site) Option { return func(srv *Server) { srv.site = s } }

// WithSearch enables /search.
func WithSearch(idx Searcher) Option { return func(srv *Server) { srv.index = idx } }

// WithHistory enables /builds.
func WithHistory(store eventstore.Store) Option { return func(srv *Server) { srv.history = store } }

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option { return func(srv *Server) { srv.metrics = h } }

// NewServer creates a new API server.
func NewServer(addr string, previews *preview.Manager, opts ...Option) *Server {
	s := &Server{
		Addr:     addr,
		router:   chi.NewRouter(),
		previews: previews,
		errs:     ferrors.NewHTTPErrorAdapter(nil),
	}
	for _, o := range opts {
		o(s)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}

	s.router.Put("/preview/{kind}/{id}", s.handleSubmitPreview)
	s.router.Get("/preview/{kind}/{id}", s.handleGetPreview)
	s.router.Delete("/preview/{kind}/{id}", s.handleDiscardPreview)

	s.router.Get("/page/*", s.handlePage)
	s.router.Get("/search", s.handleSearch)
	s.router.Get("/builds", s.handleListBuilds)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens until the server is shut down. A clean shutdown returns nil.
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "preview server stopped").
			WithContext("addr", s.Addr).Build()
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Response represents a standard API response.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// Success writes a success response.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

// Error writes err with the status derived from its category.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	s.errs.WriteErrorResponse(w, r, err)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
