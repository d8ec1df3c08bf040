package search

import (
	"sort"
	"strings"
	"time"

	"content_spider/internal/models"
)

// Base scores per retrieval stage. A hit from an earlier, stricter stage
// outranks one from a looser stage.
const (
	stageExact    = 100
	stageSemantic = 80
	stageTitle    = 70
	stageFuzzy    = 50
)

const maxResults = 10

// rank orders candidates by relevance to the query and truncates to the
// top ten. The score is an internal ordering artifact only; it is never
// attached to the returned documents.
func rank(docs []models.Document, query string, stageScore int) []models.Document {
	if len(docs) == 0 {
		return nil
	}

	terms := extractKeyTerms(query)
	queryLower := strings.ToLower(query)
	now := time.Now()

	scores := make([]float64, len(docs))
	for i := range docs {
		scores[i] = score(&docs[i], terms, queryLower, stageScore, now)
	}

	idx := make([]int, len(docs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	n := len(idx)
	if n > maxResults {
		n = maxResults
	}
	ranked := make([]models.Document, 0, n)
	for _, i := range idx[:n] {
		ranked = append(ranked, docs[i])
	}
	return ranked
}

func score(doc *models.Document, terms []string, queryLower string, stageScore int, now time.Time) float64 {
	title := strings.ToLower(doc.Title)
	content := strings.ToLower(doc.Content)
	url := strings.ToLower(doc.URL)

	total := float64(stageScore)

	// Title hits weigh heaviest; a literal full-query match in the
	// title earns an extra bonus per hit.
	for _, term := range terms {
		if strings.Contains(title, term) {
			total += 30
			if strings.Contains(title, queryLower) {
				total += 20
			}
		}
	}

	// Content occurrences, five points each, capped per term.
	for _, term := range terms {
		occurrences := strings.Count(content, term)
		points := float64(occurrences * 5)
		if points > 25 {
			points = 25
		}
		total += points
	}

	// Fresh documents get up to twenty extra points, fading a point a
	// day.
	ageDays := now.Sub(doc.Timestamp).Hours() / 24
	if bonus := 20 - ageDays; bonus > 0 {
		total += bonus
	}

	switch doc.Type {
	case models.TypeNews:
		total += 5
	case models.TypePrivate:
		total += 3
	}

	for _, term := range terms {
		if strings.Contains(url, term) {
			total += 10
		}
	}

	return total
}
