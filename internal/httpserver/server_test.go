package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"content_spider/internal/crawler"
	"content_spider/internal/db"
	"content_spider/internal/fetch"
	"content_spider/internal/logger"
	"content_spider/internal/models"
	"content_spider/internal/search"
)

func newTestHandler(t *testing.T, store db.Store, sources []models.Source) http.Handler {
	t.Helper()
	log := logger.Nop()
	coord := crawler.New(store, fetch.New(5*time.Second, "test-agent"), log, crawler.Options{MaxDepth: 3})
	engine := search.NewEngine(store, nil, log)
	return New(":0", log, coord, engine, store, sources).srv.Handler
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, db.NewMemory(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
}

func TestSearchRequiresQuery(t *testing.T) {
	h := newTestHandler(t, db.NewMemory(), nil)
	rec, _ := doJSON(t, h, http.MethodGet, "/api/search", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRejectsUnknownType(t *testing.T) {
	h := newTestHandler(t, db.NewMemory(), nil)
	rec, _ := doJSON(t, h, http.MethodGet, "/api/search?q=x&type=bogus", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchPaging(t *testing.T) {
	store := db.NewMemory()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.UpsertDocument(ctx, &models.Document{
			URL:   fmt.Sprintf("https://example.com/%d", i),
			Title: "Bautzen", Content: "About Bautzen.",
			Timestamp: time.Now(), IsActive: true, Type: models.TypeGeneral,
		}))
	}
	h := newTestHandler(t, store, nil)

	rec, body := doJSON(t, h, http.MethodGet, "/api/search?q=bautzen&limit=2&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(5), body["total"])
	require.Equal(t, float64(2), body["count"])

	// A page past the end is empty, not an error.
	rec, body = doJSON(t, h, http.MethodGet, "/api/search?q=bautzen&limit=10&page=9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(0), body["count"])
	require.NotNil(t, body["results"])
}

func TestSearchEmptyResultIsValidJSON(t *testing.T) {
	h := newTestHandler(t, db.NewMemory(), nil)
	rec, body := doJSON(t, h, http.MethodGet, "/api/search?q=nothingmatches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(0), body["total"])
	results, ok := body["results"].([]interface{})
	require.True(t, ok)
	require.Empty(t, results)
}

func TestIngestRequiresSources(t *testing.T) {
	h := newTestHandler(t, db.NewMemory(), nil)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/ingest", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestRejectsUnknownSourceType(t *testing.T) {
	h := newTestHandler(t, db.NewMemory(), nil)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/ingest",
		`{"sources":[{"url":"https://example.com","type":"bogus"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestCrawlsBodySources(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Seed</title></head><body><main><p>Body text long enough to satisfy the extraction threshold without trouble.</p></main></body></html>`)
	}))
	defer target.Close()

	store := db.NewMemory()
	h := newTestHandler(t, store, nil)

	rec, body := doJSON(t, h, http.MethodPost, "/api/ingest",
		fmt.Sprintf(`{"sources":[{"url":"%s","type":"general"}]}`, target.URL))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), body["seedsStored"])

	doc, err := store.GetDocument(context.Background(), target.URL)
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestQueueStatsAndReset(t *testing.T) {
	store := db.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.SaveQueueEntry(ctx, &models.QueueEntry{URL: "https://example.com/a", Type: models.TypeNews}))
	require.NoError(t, store.MarkProcessed(ctx, "https://example.com/a"))
	h := newTestHandler(t, store, nil)

	rec, body := doJSON(t, h, http.MethodGet, "/api/queue/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), body["total"])
	require.Equal(t, float64(1), body["processed"])

	rec, body = doJSON(t, h, http.MethodPost, "/api/queue/reset?type=news", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), body["reset"])

	rec, _ = doJSON(t, h, http.MethodPost, "/api/queue/reset?type=bogus", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessQueueRejectsUnknownType(t *testing.T) {
	h := newTestHandler(t, db.NewMemory(), nil)
	rec, _ := doJSON(t, h, http.MethodPost, "/api/queue/process?type=bogus", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDebugLinksRequiresURL(t *testing.T) {
	h := newTestHandler(t, db.NewMemory(), nil)
	rec, _ := doJSON(t, h, http.MethodGet, "/api/debug/links", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
