// Package search answers relevance queries through a layered, degrading
// strategy: exact phrase, then semantic/keyword, then fuzzy, then
// title-only, with a generative reranker as the last resort.
package search

import (
	"context"
	"strings"

	"content_spider/internal/db"
	"content_spider/internal/logger"
	"content_spider/internal/models"
)

type Engine struct {
	store    db.Store
	reranker Reranker // nil disables the generative fallback
	log      logger.Logger
}

func NewEngine(store db.Store, reranker Reranker, log logger.Logger) *Engine {
	return &Engine{store: store, reranker: reranker, log: log}
}

// Search runs the staged pipeline over active documents, optionally
// restricted to a content type. When the filtered run comes up empty it
// retries once without the type filter, and only then falls back to the
// generative reranker. Search never mutates state; concurrent calls are
// safe.
func (e *Engine) Search(ctx context.Context, query, typ string) ([]models.Document, error) {
	filter := db.DocumentFilter{ActiveOnly: true, Type: typ}

	results := e.multiStage(ctx, query, filter)
	if len(results) == 0 && typ != "" {
		e.log.Debugf("no results for %q, trying broader search", query)
		results = e.multiStage(ctx, query, db.DocumentFilter{ActiveOnly: true})
	}
	if len(results) > 0 {
		return results, nil
	}

	return e.generativeFallback(ctx, query, filter)
}

// multiStage runs the four stages in order and stops at the first one
// that produces anything. An empty stage is control flow, not an error.
func (e *Engine) multiStage(ctx context.Context, query string, filter db.DocumentFilter) []models.Document {
	if results := e.exactPhraseStage(ctx, query, filter); len(results) > 0 {
		e.log.Debugf("%d results from exact phrase stage", len(results))
		return results
	}
	if results := e.semanticStage(ctx, query, filter); len(results) > 0 {
		e.log.Debugf("%d results from semantic stage", len(results))
		return results
	}
	if results := e.fuzzyStage(ctx, query, filter); len(results) > 0 {
		e.log.Debugf("%d results from fuzzy stage", len(results))
		return results
	}
	if results := e.titleStage(ctx, query, filter); len(results) > 0 {
		e.log.Debugf("%d results from title stage", len(results))
		return results
	}
	return nil
}

// exactPhraseStage requires every candidate phrase of the query to
// appear verbatim in the title or content.
func (e *Engine) exactPhraseStage(ctx context.Context, query string, filter db.DocumentFilter) []models.Document {
	phrases := extractPhrases(query)
	if len(phrases) == 0 {
		return nil
	}

	docs, err := e.store.FindDocuments(ctx, filter, &db.TermQuery{AllOf: phrases}, 10)
	if err != nil {
		e.log.Warn("exact phrase stage failed", logger.Error(err))
		return nil
	}
	return rank(docs, query, stageExact)
}

// semanticStage tries the store's native text search over the key
// terms; when that yields fewer than three hits it widens to an
// any-term match.
func (e *Engine) semanticStage(ctx context.Context, query string, filter db.DocumentFilter) []models.Document {
	terms := extractKeyTerms(query)
	if len(terms) == 0 {
		return nil
	}

	docs, err := e.store.TextSearch(ctx, filter, strings.Join(terms, " "), 15)
	if err != nil {
		e.log.Debugf("text search unavailable: %v", err)
		docs = nil
	}

	if len(docs) < 3 {
		regexDocs, err := e.store.FindDocuments(ctx, filter, &db.TermQuery{AnyOf: terms}, 15)
		if err != nil {
			e.log.Warn("semantic stage failed", logger.Error(err))
		} else if len(regexDocs) > len(docs) {
			docs = regexDocs
		}
	}

	return rank(docs, query, stageSemantic)
}

// fuzzyStage merges three overlapping strategies: all words present,
// any word present, and truncated-prefix partial matches.
func (e *Engine) fuzzyStage(ctx context.Context, query string, filter db.DocumentFilter) []models.Document {
	words := fuzzyWords(query)
	if len(words) == 0 {
		return nil
	}

	prefixes := make([]string, 0, len(words))
	for _, w := range words {
		prefixes = append(prefixes, prefixOf(w))
	}

	queries := []*db.TermQuery{
		{AllOf: words},
		{AnyOf: words},
		{AnyOf: prefixes},
	}

	seen := make(map[string]bool)
	var merged []models.Document
	for _, q := range queries {
		docs, err := e.store.FindDocuments(ctx, filter, q, 10)
		if err != nil {
			e.log.Warn("fuzzy stage query failed", logger.Error(err))
			continue
		}
		for _, doc := range docs {
			if !seen[doc.URL] {
				seen[doc.URL] = true
				merged = append(merged, doc)
			}
		}
	}

	return rank(merged, query, stageFuzzy)
}

// titleStage matches key terms against titles only.
func (e *Engine) titleStage(ctx context.Context, query string, filter db.DocumentFilter) []models.Document {
	terms := extractKeyTerms(query)
	if len(terms) == 0 {
		return nil
	}

	docs, err := e.store.FindDocuments(ctx, filter, &db.TermQuery{TitleAnyOf: terms}, 10)
	if err != nil {
		e.log.Warn("title stage failed", logger.Error(err))
		return nil
	}
	return rank(docs, query, stageTitle)
}
