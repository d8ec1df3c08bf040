package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"content_spider/internal/db"
	"content_spider/internal/logger"
	"content_spider/internal/models"
)

func TestCleanupCollectRemovesExpiredDocuments(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	now := time.Now()

	require.NoError(t, store.UpsertDocument(ctx, &models.Document{
		URL: "https://example.com/old", Timestamp: now.Add(-48 * time.Hour), IsActive: true,
	}))
	require.NoError(t, store.UpsertDocument(ctx, &models.Document{
		URL: "https://example.com/fresh", Timestamp: now, IsActive: true,
	}))

	c := NewCleanup(store, logger.Nop(), time.Hour, 24*time.Hour)
	c.Collect(ctx)

	n, err := store.CountDocuments(ctx, db.DocumentFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	doc, err := store.GetDocument(ctx, "https://example.com/fresh")
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestCleanupTickerRuns(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	require.NoError(t, store.UpsertDocument(ctx, &models.Document{
		URL: "https://example.com/old", Timestamp: time.Now().Add(-48 * time.Hour), IsActive: true,
	}))

	c := NewCleanup(store, logger.Nop(), 10*time.Millisecond, 24*time.Hour)
	c.Start(ctx)
	defer c.Stop()

	require.Eventually(t, func() bool {
		n, err := store.CountDocuments(ctx, db.DocumentFilter{})
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCleanupDisabledInterval(t *testing.T) {
	c := NewCleanup(db.NewMemory(), logger.Nop(), 0, time.Hour)
	c.Start(context.Background())
	c.Stop()
}

func TestRefetcherDisabledWithoutSources(t *testing.T) {
	r := NewSourceRefetcher(nil, nil, logger.Nop(), time.Hour)
	r.Start(context.Background())
	r.Stop()
}
