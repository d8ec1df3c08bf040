// Package httpserver exposes the operator surface: ingestion triggers,
// queue management, search, and the link-extraction debug view.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"content_spider/internal/crawler"
	"content_spider/internal/db"
	"content_spider/internal/logger"
	"content_spider/internal/models"
	"content_spider/internal/search"
)

type Server struct {
	srv *http.Server
	log logger.Logger
}

func New(addr string, log logger.Logger, coord *crawler.Coordinator, engine *search.Engine, store db.Store, sources []models.Source) *Server {
	h := &handlers{
		log:     log,
		coord:   coord,
		engine:  engine,
		store:   store,
		sources: sources,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Route("/api", func(r chi.Router) {
		r.Post("/ingest", h.ingest)
		r.Post("/queue/process", h.processQueue)
		r.Get("/queue/stats", h.queueStats)
		r.Post("/queue/reset", h.resetQueue)
		r.Get("/search", h.search)
		r.Get("/debug/links", h.debugLinks)
	})

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Infof("http server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
