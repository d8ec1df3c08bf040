// Package scheduler runs the periodic jobs around the crawl core: the
// source refetch loop (the only path that refreshes existing documents)
// and the retention cleanup.
package scheduler

import (
	"context"
	"time"

	"content_spider/internal/crawler"
	"content_spider/internal/db"
	"content_spider/internal/logger"
	"content_spider/internal/models"
)

// SourceRefetcher periodically re-ingests the configured seed sources
// and drains whatever the ingest discovered. Disabled when interval is
// zero.
type SourceRefetcher struct {
	coord    *crawler.Coordinator
	sources  []models.Source
	log      logger.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSourceRefetcher(coord *crawler.Coordinator, sources []models.Source, log logger.Logger, interval time.Duration) *SourceRefetcher {
	return &SourceRefetcher{coord: coord, sources: sources, log: log, interval: interval}
}

func (s *SourceRefetcher) Start(ctx context.Context) {
	if s.interval <= 0 || len(s.sources) == 0 {
		s.log.Info("source refetcher disabled")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.run(ctx)
			}
		}
	}()
}

func (s *SourceRefetcher) run(ctx context.Context) {
	s.log.Infof("scheduled fetch of %d sources", len(s.sources))
	stored := s.coord.IngestSources(ctx, s.sources)
	stats, err := s.coord.ProcessQueue(ctx, "")
	if err != nil {
		s.log.Error("scheduled queue processing failed", logger.Error(err))
		return
	}
	s.log.Infof("scheduled fetch done: %d seeds stored, %d queue entries processed", stored, stats.Processed)
}

func (s *SourceRefetcher) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// Cleanup deletes documents older than the retention window. This is
// the external time-based cleanup policy; the crawl core itself never
// hard-deletes.
type Cleanup struct {
	store     db.Store
	log       logger.Logger
	interval  time.Duration
	retention time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewCleanup(store db.Store, log logger.Logger, interval, retention time.Duration) *Cleanup {
	return &Cleanup{store: store, log: log, interval: interval, retention: retention}
}

func (c *Cleanup) Start(ctx context.Context) {
	if c.interval <= 0 {
		c.log.Info("cleanup disabled")
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Collect(ctx)
			}
		}
	}()
}

func (c *Cleanup) Collect(ctx context.Context) {
	cutoff := time.Now().Add(-c.retention)
	n, err := c.store.DeleteDocumentsBefore(ctx, cutoff)
	if err != nil {
		c.log.Error("cleanup failed", logger.Error(err))
		return
	}
	if n > 0 {
		c.log.Infof("cleanup removed %d documents older than %s", n, cutoff.Format(time.RFC3339))
	}
}

func (c *Cleanup) Stop() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
}
