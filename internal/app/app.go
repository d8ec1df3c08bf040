package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content_spider/internal/config"
	"content_spider/internal/crawler"
	"content_spider/internal/db"
	"content_spider/internal/fetch"
	"content_spider/internal/httpserver"
	"content_spider/internal/logger"
	"content_spider/internal/scheduler"
	"content_spider/internal/search"
)

type App struct {
	cfg       *config.Config
	log       logger.Logger
	store     db.Store
	server    *httpserver.Server
	refetcher *scheduler.SourceRefetcher
	cleanup   *scheduler.Cleanup
}

func New(cfg *config.Config) (*App, error) {
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	var store db.Store
	switch cfg.DB.Driver {
	case "memory":
		log.Info("using in-memory store")
		store = db.NewMemory()
	case "mongo":
		log.Infof("connecting to MongoDB database %s", cfg.DB.Database)
		mongoStore, err := db.NewMongo(cfg.DB)
		if err != nil {
			return nil, err
		}
		store = mongoStore
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}

	fetcher := fetch.New(time.Duration(cfg.Crawler.TimeoutSec)*time.Second, cfg.Crawler.UserAgent)

	coord := crawler.New(store, fetcher, log, crawler.Options{
		Delay:         time.Duration(cfg.Crawler.DelayMS) * time.Millisecond,
		MaxDepth:      cfg.Crawler.MaxDepth,
		RespectRobots: cfg.Crawler.RespectRobots,
		UserAgent:     cfg.Crawler.UserAgent,
	})

	var reranker search.Reranker
	if cfg.Search.Fallback.Enabled && cfg.Search.Fallback.BaseURL != "" {
		reranker = search.NewChatReranker(
			cfg.Search.Fallback.BaseURL,
			cfg.Search.Fallback.APIKey,
			cfg.Search.Fallback.Model,
		)
	} else {
		log.Info("generative fallback disabled")
	}
	engine := search.NewEngine(store, reranker, log)

	refetcher := scheduler.NewSourceRefetcher(coord, cfg.Sources, log,
		time.Duration(cfg.Scheduler.FetchIntervalHours)*time.Hour)
	cleanup := scheduler.NewCleanup(store, log,
		time.Duration(cfg.Scheduler.CleanupIntervalHours)*time.Hour,
		time.Duration(cfg.Scheduler.RetentionDays)*24*time.Hour)

	server := httpserver.New(cfg.Server.Addr, log, coord, engine, store, cfg.Sources)

	return &App{
		cfg:       cfg,
		log:       log,
		store:     store,
		server:    server,
		refetcher: refetcher,
		cleanup:   cleanup,
	}, nil
}

func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.refetcher.Start(ctx)
	a.cleanup.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
	case err := <-errCh:
		return err
	}

	a.refetcher.Stop()
	a.cleanup.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.log.Warn("http server shutdown failed", logger.Error(err))
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Warn("store close failed", logger.Error(err))
	}

	_ = a.log.Sync()
	return nil
}
