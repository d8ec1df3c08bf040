package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"content_spider/internal/crawler"
	"content_spider/internal/db"
	"content_spider/internal/logger"
	"content_spider/internal/models"
	"content_spider/internal/search"
)

type handlers struct {
	log     logger.Logger
	coord   *crawler.Coordinator
	engine  *search.Engine
	store   db.Store
	sources []models.Source
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ingestRequest struct {
	Sources []models.Source `json:"sources"`
}

// ingest seeds the queue from the request body (or the configured
// sources when the body is empty) and drains it.
func (h *handlers) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	sources := req.Sources
	if len(sources) == 0 {
		sources = h.sources
	}
	if len(sources) == 0 {
		writeError(w, http.StatusBadRequest, "no sources given or configured")
		return
	}
	for _, src := range sources {
		if !models.ValidType(src.Type) {
			writeError(w, http.StatusBadRequest, "unknown source type: "+src.Type)
			return
		}
	}

	stored := h.coord.IngestSources(r.Context(), sources)
	stats, err := h.coord.ProcessQueue(r.Context(), "")
	if err != nil {
		h.log.Error("queue processing failed after ingest", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "queue processing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"seedsStored": stored,
		"queue":       stats,
	})
}

func (h *handlers) processQueue(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	if typ != "" && !models.ValidType(typ) {
		writeError(w, http.StatusBadRequest, "unknown type: "+typ)
		return
	}

	stats, err := h.coord.ProcessQueue(r.Context(), typ)
	if err != nil {
		h.log.Error("queue processing failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "queue processing failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) queueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.QueueStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read queue stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) resetQueue(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	if typ != "" && !models.ValidType(typ) {
		writeError(w, http.StatusBadRequest, "unknown type: "+typ)
		return
	}

	n, err := h.store.ResetQueue(r.Context(), typ)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset queue")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"reset": n})
}

// search runs the staged pipeline and pages over its (at most ten)
// results.
func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	typ := r.URL.Query().Get("type")
	if typ != "" && !models.ValidType(typ) {
		writeError(w, http.StatusBadRequest, "unknown type: "+typ)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 10 {
		limit = 10
	}

	results, err := h.engine.Search(r.Context(), query, typ)
	if err != nil {
		h.log.Error("search failed", logger.String("query", query), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	total := len(results)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	pageResults := results[start:end]
	if pageResults == nil {
		pageResults = []models.Document{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": pageResults,
		"count":   len(pageResults),
		"total":   total,
	})
}

func (h *handlers) debugLinks(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter url")
		return
	}
	writeJSON(w, http.StatusOK, h.coord.DebugLinks(r.Context(), rawURL))
}
