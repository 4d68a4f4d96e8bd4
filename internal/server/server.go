package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jjudge-oj/imageforms/config"
	"github.com/jjudge-oj/imageforms/internal/db"
	"github.com/jjudge-oj/imageforms/internal/handlers"
	"github.com/jjudge-oj/imageforms/internal/mq"
	"github.com/jjudge-oj/imageforms/internal/services"
	"github.com/jjudge-oj/imageforms/internal/storage"
	"github.com/jjudge-oj/imageforms/internal/store"
	"github.com/jjudge-oj/imageforms/types"
	"gorm.io/gorm/logger"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	closers    []io.Closer
	logTags    log.Fields
}

// New constructs a Server with basic middleware and the backends selected
// by cfg.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	s := &Server{logTags: log.Fields{"module": "server"}}

	repo, err := s.openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		s.closeAll()
		return nil, err
	}
	s.track(backend)
	objects := storage.NewStorage(backend)
	if err := objects.EnsureBucket(ctx); err != nil {
		s.closeAll()
		return nil, fmt.Errorf("ensure bucket %q: %w", objects.Bucket(), err)
	}

	var publisher services.EventPublisher
	broker, err := mq.Open(ctx, cfg.Events)
	switch {
	case errors.Is(err, mq.ErrNoBackend):
		log.WithFields(s.logTags).Info("Record events disabled")
	case err != nil:
		s.closeAll()
		return nil, err
	default:
		events := mq.NewRecordEvents(broker, cfg.Events.Channel)
		s.closers = append(s.closers, events)
		publisher = events
	}

	recordService := services.NewRecordService(repo, objects, publisher, cfg.PublicURL)
	s.router = NewRouter(recordService)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.WithFields(s.logTags).WithFields(log.Fields{
		"store":   cfg.StoreDriver,
		"storage": cfg.Storage.Backend,
		"events":  cfg.Events.Backend,
	}).Info("Server configured")
	return s, nil
}

// NewRouter mounts the records API of every collection, the file server
// and the health check.
func NewRouter(recordService *services.RecordService) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/files", func(r chi.Router) {
		handlers.FileRouter(r, recordService)
	})
	router.Route("/api", func(r chi.Router) {
		for _, c := range types.Collections() {
			c := c
			r.Route("/"+c.Path, func(r chi.Router) {
				handlers.RecordRouter(r, c, recordService)
			})
		}
	})
	return router
}

func (s *Server) openRepository(ctx context.Context, cfg config.Config) (services.RecordRepository, error) {
	switch cfg.StoreDriver {
	case "", config.StoreMemory:
		return store.NewMemoryRecordRepository(), nil
	case config.StorePostgres:
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		s.track(dbConn)
		return store.NewRecordRepository(dbConn), nil
	case config.StoreSQLite:
		repo, err := store.NewSQLiteRecordRepository(store.GetSqliteDialector(cfg.SQLitePath), logger.Warn)
		if err != nil {
			return nil, err
		}
		s.track(repo)
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (s *Server) track(v any) {
	if c, ok := v.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}
}

func (s *Server) closeAll() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			log.WithFields(s.logTags).WithError(err).Warn("Failed to close resource")
		}
	}
	s.closers = nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	log.WithFields(s.logTags).WithField("addr", s.httpServer.Addr).Info("Listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeAll()
	return err
}
