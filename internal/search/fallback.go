package search

import (
	"context"

	"content_spider/internal/db"
	"content_spider/internal/logger"
	"content_spider/internal/models"
)

// Candidate is the compact document view handed to the reranker.
type Candidate struct {
	URL     string
	Title   string
	Type    string
	Content string
}

// Reranker names the documents most relevant to a query. It returns up
// to three candidate URLs, or an empty slice when nothing fits.
type Reranker interface {
	Rank(ctx context.Context, query string, candidates []Candidate) ([]string, error)
}

const (
	fallbackSampleSize  = 20
	fallbackResultCount = 3
	candidateContentCap = 500
)

// generativeFallback runs only after every search stage and the broader
// retry came up empty. It shows the reranker a capped recent sample of
// the corpus; if the reranker itself fails, the deterministic answer is
// the three most recent documents.
func (e *Engine) generativeFallback(ctx context.Context, query string, filter db.DocumentFilter) ([]models.Document, error) {
	if e.reranker == nil {
		return nil, nil
	}

	docs, err := e.store.FindDocuments(ctx, filter, nil, fallbackSampleSize)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		e.log.Debug("no documents available for generative fallback")
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(docs))
	for _, doc := range docs {
		content := doc.Content
		if len(content) > candidateContentCap {
			content = content[:candidateContentCap]
		}
		candidates = append(candidates, Candidate{
			URL:     doc.URL,
			Title:   doc.Title,
			Type:    doc.Type,
			Content: content,
		})
	}

	e.log.Infof("asking reranker to score %d documents for %q", len(candidates), query)
	urls, err := e.reranker.Rank(ctx, query, candidates)
	if err != nil {
		// Provider failure degrades to recency order.
		e.log.Warn("reranker failed, falling back to recency", logger.Error(err))
		if len(docs) > fallbackResultCount {
			docs = docs[:fallbackResultCount]
		}
		return docs, nil
	}

	if len(urls) == 0 {
		return nil, nil
	}

	wanted := make(map[string]bool, len(urls))
	for _, u := range urls {
		wanted[u] = true
	}
	var results []models.Document
	for _, doc := range docs {
		if wanted[doc.URL] {
			results = append(results, doc)
		}
		if len(results) == fallbackResultCount {
			break
		}
	}
	return results, nil
}
