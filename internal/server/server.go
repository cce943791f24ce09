// Package server provides the HTTP API for kertas.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kertas/internal/config"
	"github.com/hyperjump/kertas/internal/convert"
	"github.com/hyperjump/kertas/internal/storage"
	"go.uber.org/zap"
)

// WatchService is the subset of the directory watcher the API drives.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the kertas API.
type Server struct {
	converter *convert.Converter
	storage   storage.Storage
	outputs   *storage.OutputStore
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server

	watch         WatchService   // nil when watching is disabled
	configPath    string         // where watch directory changes are persisted; "" to skip
	watchConfig   *config.Config // full config, for status and persisting watch directories
	watchConfigMu sync.Mutex
}

// NewServer creates a server with the given dependencies.
func NewServer(
	converter *convert.Converter,
	store storage.Storage,
	outputs *storage.OutputStore,
	cfg *config.ServerConfig,
	logger *zap.Logger,
	watch WatchService,
	configPath string,
	fullCfg *config.Config,
) *Server {
	return &Server{
		converter:   converter,
		storage:     store,
		outputs:     outputs,
		config:      cfg,
		logger:      logger,
		watch:       watch,
		configPath:  configPath,
		watchConfig: fullCfg,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
		r.Post("/extract", s.handleExtract)
		r.Get("/conversions", s.handleListConversions)
		r.Route("/conversions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetConversion)
			r.Get("/pdf", s.handleGetConversionPDF)
			r.Get("/text", s.handleGetConversionText)
			r.Delete("/", s.handleDeleteConversion)
		})
		r.Get("/status", s.handleStatus)
		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
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
