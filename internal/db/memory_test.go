package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"content_spider/internal/models"
)

func TestMemoryQueueUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	for i := 0; i < 5; i++ {
		err := store.SaveQueueEntry(ctx, &models.QueueEntry{URL: "https://example.com/page", Type: models.TypeGeneral})
		require.NoError(t, err)
	}

	stats, err := store.QueueStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total)
}

func TestMemoryQueueTypeUpdateOnlyWhileUnprocessed(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.SaveQueueEntry(ctx, &models.QueueEntry{URL: "https://example.com/a", Type: models.TypeGeneral}))

	// Re-discovery with a different type updates the entry in place.
	require.NoError(t, store.SaveQueueEntry(ctx, &models.QueueEntry{URL: "https://example.com/a", Type: models.TypeNews}))
	entries, err := store.UnprocessedEntries(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.TypeNews, entries[0].Type)

	// Once processed, discovery must not mutate it anymore.
	require.NoError(t, store.MarkProcessed(ctx, "https://example.com/a"))
	require.NoError(t, store.SaveQueueEntry(ctx, &models.QueueEntry{URL: "https://example.com/a", Type: models.TypePrivate}))

	stats, err := store.QueueStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total)
	require.Equal(t, int64(1), stats.Processed)
	require.Equal(t, int64(1), stats.ByType[models.TypeNews])
}

func TestMemoryResetQueue(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.SaveQueueEntry(ctx, &models.QueueEntry{URL: "https://example.com/a", Type: models.TypeNews}))
	require.NoError(t, store.SaveQueueEntry(ctx, &models.QueueEntry{URL: "https://example.com/b", Type: models.TypeGeneral}))
	require.NoError(t, store.MarkProcessed(ctx, "https://example.com/a"))
	require.NoError(t, store.MarkProcessed(ctx, "https://example.com/b"))

	n, err := store.ResetQueue(ctx, models.TypeNews)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	entries, err := store.UnprocessedEntries(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "https://example.com/a", entries[0].URL)
	require.Nil(t, entries[0].LastProcessed)
}

func TestMemoryResetQueueCountsOnlyModified(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.SaveQueueEntry(ctx, &models.QueueEntry{URL: "https://example.com/a", Type: models.TypeGeneral}))
	require.NoError(t, store.SaveQueueEntry(ctx, &models.QueueEntry{URL: "https://example.com/b", Type: models.TypeGeneral}))
	require.NoError(t, store.MarkProcessed(ctx, "https://example.com/a"))

	// Only the processed entry actually changes.
	n, err := store.ResetQueue(ctx, "")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	// A second reset finds nothing left to modify.
	n, err = store.ResetQueue(ctx, "")
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestMemoryUpsertDocumentUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	first := &models.Document{
		URL: "https://example.com/a", Title: "Old", Content: "old content",
		Timestamp: time.Now(), LastUpdated: time.Now(), IsActive: true, Type: models.TypeGeneral,
	}
	require.NoError(t, store.UpsertDocument(ctx, first))

	second := *first
	second.Title = "New"
	require.NoError(t, store.UpsertDocument(ctx, &second))

	n, err := store.CountDocuments(ctx, DocumentFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	doc, err := store.GetDocument(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, "New", doc.Title)
}

func TestMemoryDeleteDocumentsBefore(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	now := time.Now()

	require.NoError(t, store.UpsertDocument(ctx, &models.Document{
		URL: "https://example.com/old", Timestamp: now.Add(-40 * 24 * time.Hour), IsActive: true,
	}))
	require.NoError(t, store.UpsertDocument(ctx, &models.Document{
		URL: "https://example.com/fresh", Timestamp: now, IsActive: true,
	}))

	n, err := store.DeleteDocumentsBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	doc, err := store.GetDocument(ctx, "https://example.com/fresh")
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestMemoryFindDocumentsTermQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	now := time.Now()

	require.NoError(t, store.UpsertDocument(ctx, &models.Document{
		URL: "https://example.com/a", Title: "Summer Festival", Content: "music in the park",
		Timestamp: now, IsActive: true, Type: models.TypeNews,
	}))
	require.NoError(t, store.UpsertDocument(ctx, &models.Document{
		URL: "https://example.com/b", Title: "City Council", Content: "budget meeting minutes",
		Timestamp: now, IsActive: true, Type: models.TypeGeneral,
	}))

	docs, err := store.FindDocuments(ctx, DocumentFilter{ActiveOnly: true}, &TermQuery{AllOf: []string{"summer", "music"}}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "https://example.com/a", docs[0].URL)

	docs, err = store.FindDocuments(ctx, DocumentFilter{ActiveOnly: true}, &TermQuery{AnyOf: []string{"budget", "nothing"}}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "https://example.com/b", docs[0].URL)

	docs, err = store.FindDocuments(ctx, DocumentFilter{Type: models.TypeNews}, &TermQuery{TitleAnyOf: []string{"festival"}}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}
