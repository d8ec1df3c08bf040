package db

import (
	"context"
	"time"

	"content_spider/internal/models"
)

// DocumentFilter narrows document queries. Zero value matches everything.
type DocumentFilter struct {
	ActiveOnly bool
	Type       string
}

// TermQuery is the store-level matching vocabulary the search stages
// compile to. All matching is case-insensitive substring containment.
//
//   - AllOf: every entry must appear in the title or the content.
//   - AnyOf: at least one entry must appear in the title or the content.
//   - TitleAnyOf: at least one entry must appear in the title.
//
// Exactly one of the three lists is expected to be populated per query.
type TermQuery struct {
	AllOf      []string
	AnyOf      []string
	TitleAnyOf []string
}

// Store persists documents and the URL queue. Upserts are keyed by URL
// on both sides; the crawl coordinator and the search engine rely on the
// store's own atomic update semantics rather than external locking.
type Store interface {
	// UpsertDocument inserts the document or updates the existing one
	// with the same URL in place. Re-fetching never duplicates.
	UpsertDocument(ctx context.Context, doc *models.Document) error
	// GetDocument returns the document for url, or nil when absent.
	GetDocument(ctx context.Context, url string) (*models.Document, error)
	// FindDocuments returns documents matching filter and match (nil
	// match means filter only), newest first, capped at limit.
	FindDocuments(ctx context.Context, filter DocumentFilter, match *TermQuery, limit int64) ([]models.Document, error)
	// TextSearch runs the backend's native text search over title and
	// content, best matches first, capped at limit.
	TextSearch(ctx context.Context, filter DocumentFilter, terms string, limit int64) ([]models.Document, error)
	CountDocuments(ctx context.Context, filter DocumentFilter) (int64, error)
	// DeleteDocumentsBefore removes documents fetched before cutoff and
	// returns how many were deleted.
	DeleteDocumentsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// SaveQueueEntry inserts a new entry, or, when the URL is already
	// known and not yet processed, updates its type only. Processed
	// entries are never mutated by discovery.
	SaveQueueEntry(ctx context.Context, entry *models.QueueEntry) error
	// UnprocessedEntries returns entries with IsProcessed=false,
	// optionally restricted to typ, oldest first.
	UnprocessedEntries(ctx context.Context, typ string) ([]models.QueueEntry, error)
	// MarkProcessed flips the entry to processed with LastProcessed=now.
	MarkProcessed(ctx context.Context, url string) error
	QueueStats(ctx context.Context) (*models.QueueStats, error)
	// ResetQueue clears the processed flag, optionally per type, and
	// returns how many entries were reset.
	ResetQueue(ctx context.Context, typ string) (int64, error)

	Close(ctx context.Context) error
}
