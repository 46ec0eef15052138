// Package server provides the HTTP API for parts.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hyperjump/parts/internal/catalog"
	"github.com/hyperjump/parts/internal/config"
	"github.com/hyperjump/parts/internal/importer"
	"github.com/hyperjump/parts/internal/watcher"
)

// Server is the HTTP server for the parts API.
type Server struct {
	catalog  *catalog.Service
	importer *importer.Importer
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server

	watch      ImportDirectories // nil when no drop folders are configured
	configPath string           // when set, import directory changes are saved here
	configMu   sync.Mutex
}

// ImportDirectories manages the watched drop folders. *watcher.Watcher satisfies it.
type ImportDirectories interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
	Reports() []watcher.Report
}

// Option configures a Server.
type Option func(*Server)

// WithWatcher enables the import directory endpoints.
func WithWatcher(w ImportDirectories) Option {
	return func(s *Server) { s.watch = w }
}

// WithConfigPath persists import directory changes to the config file at path.
func WithConfigPath(path string) Option {
	return func(s *Server) { s.configPath = path }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	cat *catalog.Service,
	imp *importer.Importer,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		catalog:  cat,
		importer: imp,
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with middleware and every route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(s.config.Server.RequestTimeoutSeconds) * time.Second))

	origins := s.config.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))

	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Route("/parts", func(r chi.Router) {
			r.Get("/", s.handleListParts)
			r.Post("/", s.handleCreatePart)
			r.Get("/search", s.handleSearch)
			r.Get("/word-frequency", s.handleWordFrequency)
			r.Post("/import", s.handleImport)
			r.Get("/sku/{sku}", s.handleGetPartBySKU)
			r.Get("/{id}", s.handleGetPart)
			r.Put("/{id}", s.handleUpdatePart)
			r.Delete("/{id}", s.handleDeletePart)
		})

		r.Get("/import/directories", s.handleImportDirectoriesList)
		r.Post("/import/directories", s.handleImportDirectoriesAdd)
		r.Delete("/import/directories", s.handleImportDirectoriesRemove)
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
