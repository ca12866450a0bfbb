// Package server provides the HTTP API for edusearch.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/internal/config"
	"github.com/nepaledu/edusearch/internal/history"
	"github.com/nepaledu/edusearch/internal/metrics"
	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/internal/notify"
	"github.com/nepaledu/edusearch/internal/search"
	"github.com/nepaledu/edusearch/internal/storage"
	"github.com/nepaledu/edusearch/pkg/utils"
)

// EntityStore is the entity repository plus the per-kind counts shown by /status.
type EntityStore interface {
	storage.Repository
	Counts(ctx context.Context) (map[models.EntityKind]int, error)
}

// WatchService reports the data directories being watched.
type WatchService interface {
	Directories() []string
}

// Notices is the set of visible user notifications, such as data import results.
type Notices interface {
	Active() []notify.Notification
	Dismiss(id uint64)
}

// Server is the HTTP server for the edusearch API.
type Server struct {
	engine   *search.Engine
	history  *history.Store
	entities EntityStore
	config   *config.Config
	logger   *zap.Logger
	watch    WatchService
	notices  Notices
	server   *http.Server
}

// NewServer creates a server with the given dependencies. watch may be nil.
func NewServer(
	engine *search.Engine,
	hist *history.Store,
	entities EntityStore,
	cfg *config.Config,
	logger *zap.Logger,
	watch WatchService,
) *Server {
	return &Server{
		engine:   engine,
		history:  hist,
		entities: entities,
		config:   cfg,
		logger:   utils.NopIfNil(logger),
		watch:    watch,
	}
}

// SetNotices exposes n under /api/v1/notifications.
func (s *Server) SetNotices(n Notices) {
	s.notices = n
}

// Router builds the HTTP handler with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(metrics.Middleware())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearchGet)
		r.Post("/search", s.handleSearch)
		r.Get("/suggest", s.handleSuggest)

		r.Get("/history", s.handleHistoryList)
		r.Delete("/history", s.handleHistoryClear)

		r.Get("/saved", s.handleSavedList)
		r.Post("/saved", s.handleSavedCreate)
		r.Get("/saved/{id}", s.handleSavedGet)
		r.Delete("/saved/{id}", s.handleSavedDelete)
		r.Post("/saved/{id}/run", s.handleSavedRun)

		r.Get("/entities/{kind}", s.handleEntitiesGet)
		r.Put("/entities/{kind}", s.handleEntitiesPut)

		r.Get("/watch/directories", s.handleWatchDirectories)
		r.Get("/status", s.handleStatus)

		r.Get("/notifications", s.handleNotificationsList)
		r.Delete("/notifications/{id}", s.handleNotificationDismiss)
	})
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
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
