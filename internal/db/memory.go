package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"content_spider/internal/models"
)

// Memory is an in-process Store. It backs tests and the "memory" driver
// for credential-less local runs. TextSearch approximates the Mongo
// $text index as case-insensitive any-term matching ranked by
// occurrence count; the search engine's regex fallback covers the gap.
type Memory struct {
	mu      sync.RWMutex
	docs    map[string]models.Document
	entries map[string]models.QueueEntry
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		docs:    make(map[string]models.Document),
		entries: make(map[string]models.QueueEntry),
	}
}

func (m *Memory) UpsertDocument(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	updated := *doc
	if existing, ok := m.docs[doc.URL]; ok && updated.RawHTML == "" {
		updated.RawHTML = existing.RawHTML
	}
	m.docs[doc.URL] = updated
	return nil
}

func (m *Memory) GetDocument(_ context.Context, url string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[url]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func matchesFilter(doc *models.Document, filter DocumentFilter) bool {
	if filter.ActiveOnly && !doc.IsActive {
		return false
	}
	if filter.Type != "" && doc.Type != filter.Type {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matchesQuery(doc *models.Document, match *TermQuery) bool {
	if match == nil {
		return true
	}
	inTitleOrContent := func(term string) bool {
		return containsFold(doc.Title, term) || containsFold(doc.Content, term)
	}
	switch {
	case len(match.AllOf) > 0:
		for _, term := range match.AllOf {
			if !inTitleOrContent(term) {
				return false
			}
		}
		return true
	case len(match.AnyOf) > 0:
		for _, term := range match.AnyOf {
			if inTitleOrContent(term) {
				return true
			}
		}
		return false
	case len(match.TitleAnyOf) > 0:
		for _, term := range match.TitleAnyOf {
			if containsFold(doc.Title, term) {
				return true
			}
		}
		return false
	}
	return true
}

func capDocs(docs []models.Document, limit int64) []models.Document {
	if limit > 0 && int64(len(docs)) > limit {
		return docs[:limit]
	}
	return docs
}

func (m *Memory) FindDocuments(_ context.Context, filter DocumentFilter, match *TermQuery, limit int64) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []models.Document
	for _, doc := range m.docs {
		if matchesFilter(&doc, filter) && matchesQuery(&doc, match) {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Timestamp.After(docs[j].Timestamp)
	})
	return capDocs(docs, limit), nil
}

func (m *Memory) TextSearch(_ context.Context, filter DocumentFilter, terms string, limit int64) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	words := strings.Fields(strings.ToLower(terms))
	if len(words) == 0 {
		return nil, nil
	}

	type scored struct {
		doc  models.Document
		hits int
	}
	var results []scored
	for _, doc := range m.docs {
		if !matchesFilter(&doc, filter) {
			continue
		}
		text := strings.ToLower(doc.Title + " " + doc.Content)
		hits := 0
		for _, w := range words {
			hits += strings.Count(text, w)
		}
		if hits > 0 {
			results = append(results, scored{doc: doc, hits: hits})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].hits > results[j].hits
	})

	docs := make([]models.Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, r.doc)
	}
	return capDocs(docs, limit), nil
}

func (m *Memory) CountDocuments(_ context.Context, filter DocumentFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, doc := range m.docs {
		if matchesFilter(&doc, filter) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) DeleteDocumentsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for url, doc := range m.docs {
		if doc.Timestamp.Before(cutoff) {
			delete(m.docs, url)
			n++
		}
	}
	return n, nil
}

func (m *Memory) SaveQueueEntry(_ context.Context, entry *models.QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.entries[entry.URL]; ok {
		if !existing.IsProcessed {
			existing.Type = entry.Type
			m.entries[entry.URL] = existing
		}
		return nil
	}

	stored := *entry
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	m.entries[entry.URL] = stored
	return nil
}

func (m *Memory) UnprocessedEntries(_ context.Context, typ string) ([]models.QueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []models.QueueEntry
	for _, e := range m.entries {
		if e.IsProcessed {
			continue
		}
		if typ != "" && e.Type != typ {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].URL < entries[j].URL
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

func (m *Memory) MarkProcessed(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[url]
	if !ok {
		return nil
	}
	now := time.Now()
	entry.IsProcessed = true
	entry.LastProcessed = &now
	m.entries[url] = entry
	return nil
}

func (m *Memory) QueueStats(_ context.Context) (*models.QueueStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.QueueStats{ByType: make(map[string]int64)}
	for _, e := range m.entries {
		stats.Total++
		if e.IsProcessed {
			stats.Processed++
		}
		stats.ByType[e.Type]++
	}
	stats.Unprocessed = stats.Total - stats.Processed
	return stats, nil
}

func (m *Memory) ResetQueue(_ context.Context, typ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for url, e := range m.entries {
		if typ != "" && e.Type != typ {
			continue
		}
		// Count modifications only, like the Mongo driver does.
		if !e.IsProcessed && e.LastProcessed == nil {
			continue
		}
		e.IsProcessed = false
		e.LastProcessed = nil
		m.entries[url] = e
		n++
	}
	return n, nil
}

func (m *Memory) Close(context.Context) error { return nil }
