// Package crawler drives the fetch → extract → store → discover loop
// over the persistent URL queue.
package crawler

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"content_spider/internal/db"
	"content_spider/internal/extract"
	"content_spider/internal/fetch"
	"content_spider/internal/links"
	"content_spider/internal/logger"
	"content_spider/internal/models"
)

type Options struct {
	// Delay is the blocking pause between processed entries.
	Delay time.Duration
	// MaxDepth bounds queue recursion; passes run at depth 0..MaxDepth.
	MaxDepth int
	// RespectRobots gates fetches on the origin's robots.txt.
	RespectRobots bool
	UserAgent     string
}

// Coordinator processes queue entries sequentially. Concurrent
// invocations against the same store are tolerated only insofar as the
// per-URL in-flight markers prevent duplicate fetches; callers wanting
// real concurrency must still serialize passes themselves.
type Coordinator struct {
	store   db.Store
	fetcher *fetch.Fetcher
	log     logger.Logger
	opts    Options

	mu       sync.Mutex
	inflight map[string]bool
	robots   map[string]*robotstxt.Group
	checked  map[string]bool
}

// PassStats reports what a queue drain did, pass by pass. Passes never
// exceeds MaxDepth+1, which makes the depth bound checkable from the
// outside.
type PassStats struct {
	Passes     int `json:"passes"`
	Processed  int `json:"processed"`
	Stored     int `json:"stored"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Discovered int `json:"discovered"`
}

func New(store db.Store, fetcher *fetch.Fetcher, log logger.Logger, opts Options) *Coordinator {
	return &Coordinator{
		store:    store,
		fetcher:  fetcher,
		log:      log,
		opts:     opts,
		inflight: make(map[string]bool),
		robots:   make(map[string]*robotstxt.Group),
		checked:  make(map[string]bool),
	}
}

// IngestSources seeds the queue from the configured source list. Seeds
// are always fetched, even when a document already exists — this is the
// one path that refreshes content in place. Each seed ends up as a
// processed queue entry; links it references are queued unprocessed.
func (c *Coordinator) IngestSources(ctx context.Context, sources []models.Source) int {
	stored := 0
	for i, src := range sources {
		if i > 0 {
			time.Sleep(c.opts.Delay)
		}

		entry := &models.QueueEntry{
			URL:         src.URL,
			Username:    src.Username,
			Password:    src.Password,
			Type:        src.Type,
			Description: src.Description,
		}
		if err := c.store.SaveQueueEntry(ctx, entry); err != nil {
			c.log.Warn("failed to queue seed", logger.String("url", src.URL), logger.Error(err))
		}

		if _, ok := c.fetchAndStore(ctx, src.URL, creds(src.Username, src.Password), src.Type, src.Selectors); ok {
			stored++
		}

		if err := c.store.MarkProcessed(ctx, src.URL); err != nil {
			c.log.Warn("failed to mark seed processed", logger.String("url", src.URL), logger.Error(err))
		}
	}
	return stored
}

// ProcessQueue drains unprocessed entries in passes. A pass sweeps every
// entry currently unprocessed; links discovered during the sweep land in
// the queue and are picked up by the next pass at depth+1. Recursion
// hard-stops past MaxDepth no matter how much is left, so cyclic or
// combinatorial link graphs terminate.
func (c *Coordinator) ProcessQueue(ctx context.Context, typ string) (*PassStats, error) {
	stats := &PassStats{}

	for depth := 0; ; depth++ {
		if depth > c.opts.MaxDepth {
			c.log.Infof("stopping queue recursion at depth %d", depth)
			break
		}

		entries, err := c.store.UnprocessedEntries(ctx, typ)
		if err != nil {
			return stats, err
		}
		if len(entries) == 0 {
			break
		}

		c.log.Infof("processing %d unprocessed URLs (depth %d)", len(entries), depth)
		stats.Passes++

		for i := range entries {
			if i > 0 {
				time.Sleep(c.opts.Delay)
			}
			c.processEntry(ctx, &entries[i], stats)
		}
	}

	return stats, nil
}

// processEntry handles one queue entry. Every outcome except an
// in-flight collision marks the entry processed so the queue always
// drains; failures are logged, never raised.
func (c *Coordinator) processEntry(ctx context.Context, entry *models.QueueEntry, stats *PassStats) {
	if !c.acquire(entry.URL) {
		// Another invocation is fetching this URL right now. Leave the
		// entry alone; it stays unprocessed for a later pass.
		return
	}
	defer c.release(entry.URL)

	markProcessed := func() {
		if err := c.store.MarkProcessed(ctx, entry.URL); err != nil {
			c.log.Warn("failed to mark processed", logger.String("url", entry.URL), logger.Error(err))
		}
	}

	existing, err := c.store.GetDocument(ctx, entry.URL)
	if err == nil && existing != nil {
		c.log.Debugf("skipping %s - already fetched", entry.URL)
		markProcessed()
		stats.Processed++
		stats.Skipped++
		return
	}

	stats.Processed++
	typ := entry.Type
	if !models.ValidType(typ) {
		typ = models.TypeGeneral
	}
	discovered, ok := c.fetchAndStore(ctx, entry.URL, creds(entry.Username, entry.Password), typ, nil)
	if ok {
		stats.Stored++
		stats.Discovered += discovered
	} else {
		stats.Failed++
	}
	markProcessed()
}

// fetchAndStore runs fetch → extract → upsert for one URL and queues the
// links it references. Returns how many links were discovered and
// whether the document made it into the store.
func (c *Coordinator) fetchAndStore(ctx context.Context, rawURL string, cr *fetch.Credentials, typ string, sel *models.Selectors) (int, bool) {
	if !c.allowedByRobots(rawURL) {
		c.log.Infof("robots.txt disallows %s", rawURL)
		return 0, false
	}

	body, err := c.fetcher.Fetch(ctx, rawURL, cr)
	if err != nil {
		c.log.Warn("fetch failed", logger.String("url", rawURL), logger.Error(err))
		return 0, false
	}

	page := extract.Extract(body, rawURL, sel)
	now := time.Now()
	doc := &models.Document{
		URL:         rawURL,
		Title:       page.Title,
		Content:     page.Content,
		RawHTML:     body,
		Timestamp:   now,
		Type:        typ,
		Metadata:    page.Metadata,
		LastUpdated: now,
		IsActive:    true,
	}
	if err := c.store.UpsertDocument(ctx, doc); err != nil {
		c.log.Error("failed to store document", logger.String("url", rawURL), logger.Error(err))
		return 0, false
	}

	discovered := c.discoverLinks(ctx, rawURL, body, typ)
	c.log.Infof("stored %s (%d links discovered)", rawURL, discovered)
	return discovered, true
}

// discoverLinks extracts same-origin links and upserts them as queue
// entries carrying the source's content type.
func (c *Coordinator) discoverLinks(ctx context.Context, sourceURL, rawHTML, typ string) int {
	found, err := links.Discover(sourceURL, rawHTML)
	if err != nil {
		c.log.Warn("link extraction failed", logger.String("url", sourceURL), logger.Error(err))
		return 0
	}
	for _, link := range found {
		entry := &models.QueueEntry{
			URL:         link,
			Type:        typ,
			Description: "Internal link extracted from " + typ + " content",
		}
		if err := c.store.SaveQueueEntry(ctx, entry); err != nil {
			c.log.Warn("failed to queue discovered URL", logger.String("url", link), logger.Error(err))
		}
	}
	return len(found)
}

// DebugLinks fetches a URL and classifies every anchor on the page.
// Failures land in the report's error list, never as a returned error.
func (c *Coordinator) DebugLinks(ctx context.Context, rawURL string) *models.LinkReport {
	body, err := c.fetcher.Fetch(ctx, rawURL, nil)
	if err != nil {
		return &models.LinkReport{
			InternalLinks: []string{}, ExternalLinks: []string{}, ExcludedLinks: []string{},
			Errors: []string{err.Error()},
		}
	}

	report, err := links.Inspect(rawURL, body)
	if err != nil {
		return &models.LinkReport{
			InternalLinks: []string{}, ExternalLinks: []string{}, ExcludedLinks: []string{},
			Errors: []string{err.Error()},
		}
	}
	return report
}

func (c *Coordinator) acquire(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[url] {
		return false
	}
	c.inflight[url] = true
	return true
}

func (c *Coordinator) release(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, url)
}

// allowedByRobots consults the origin's robots.txt when enabled. A
// missing or unreadable robots.txt allows everything.
func (c *Coordinator) allowedByRobots(rawURL string) bool {
	if !c.opts.RespectRobots {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	c.mu.Lock()
	group, fetched := c.robots[u.Host], c.checked[u.Host]
	c.mu.Unlock()

	if !fetched {
		group = c.loadRobots(u)
		c.mu.Lock()
		c.robots[u.Host] = group
		c.checked[u.Host] = true
		c.mu.Unlock()
	}

	if group == nil {
		return true
	}
	return group.Test(u.Path)
}

func (c *Coordinator) loadRobots(u *url.URL) *robotstxt.Group {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body, err := c.fetcher.Fetch(ctx, robotsURL, nil)
	if err != nil {
		c.log.Debugf("no robots.txt for %s: %v", u.Host, err)
		return nil
	}

	data, err := robotstxt.FromString(body)
	if err != nil {
		c.log.Warnf("failed to parse robots.txt for %s: %v", u.Host, err)
		return nil
	}
	return data.FindGroup(c.opts.UserAgent)
}

func creds(username, password string) *fetch.Credentials {
	if username == "" {
		return nil
	}
	return &fetch.Credentials{Username: username, Password: password}
}
