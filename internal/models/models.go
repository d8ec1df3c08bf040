package models

import "time"

// Content types a source or document can carry.
const (
	TypeNews    = "news"
	TypePrivate = "private"
	TypeGeneral = "general"
)

// ValidType reports whether t is one of the known content types.
func ValidType(t string) bool {
	return t == TypeNews || t == TypePrivate || t == TypeGeneral
}

// Metadata holds the best-effort fields the extractor pulls out of a page.
// Every field may be empty.
type Metadata struct {
	Author        string   `bson:"author,omitempty" json:"author,omitempty"`
	PublishedDate string   `bson:"published_date,omitempty" json:"publishedDate,omitempty"`
	Tags          []string `bson:"tags,omitempty" json:"tags,omitempty"`
	Summary       string   `bson:"summary,omitempty" json:"summary,omitempty"`
}

// Document is the stored, extracted representation of one fetched page.
// URL is the unique key; at most one active document exists per URL.
type Document struct {
	URL         string    `bson:"url" json:"url"`
	Title       string    `bson:"title" json:"title"`
	Content     string    `bson:"content" json:"content"`
	RawHTML     string    `bson:"raw_html,omitempty" json:"-"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	Type        string    `bson:"type" json:"type"`
	Metadata    *Metadata `bson:"metadata,omitempty" json:"metadata,omitempty"`
	LastUpdated time.Time `bson:"last_updated" json:"lastUpdated"`
	IsActive    bool      `bson:"is_active" json:"isActive"`
}

// QueueEntry is a URL known to the system, pending or completed
// processing. URL is the unique key. IsProcessed flips to true exactly
// once per processing attempt, success or not.
type QueueEntry struct {
	URL           string     `bson:"url" json:"url"`
	Username      string     `bson:"username,omitempty" json:"-"`
	Password      string     `bson:"password,omitempty" json:"-"`
	Type          string     `bson:"type" json:"type"`
	Description   string     `bson:"description,omitempty" json:"description,omitempty"`
	IsProcessed   bool       `bson:"is_processed" json:"isProcessed"`
	LastProcessed *time.Time `bson:"last_processed,omitempty" json:"lastProcessed,omitempty"`
	CreatedAt     time.Time  `bson:"created_at" json:"createdAt"`
}

// Selectors are optional per-source CSS selectors that override the
// extractor's built-in heuristics, field by field.
type Selectors struct {
	Title   string `yaml:"title" json:"title,omitempty"`
	Content string `yaml:"content" json:"content,omitempty"`
	Author  string `yaml:"author" json:"author,omitempty"`
	Date    string `yaml:"date" json:"date,omitempty"`
	Tags    string `yaml:"tags" json:"tags,omitempty"`
}

// Source is a seed entry fed to the crawl coordinator.
type Source struct {
	URL         string     `yaml:"url" json:"url"`
	Username    string     `yaml:"username" json:"username,omitempty"`
	Password    string     `yaml:"password" json:"password,omitempty"`
	Type        string     `yaml:"type" json:"type"`
	Description string     `yaml:"description" json:"description,omitempty"`
	Selectors   *Selectors `yaml:"selectors" json:"selectors,omitempty"`
}

// QueueStats summarizes the URL queue for the operator surface.
type QueueStats struct {
	Total       int64            `json:"total"`
	Processed   int64            `json:"processed"`
	Unprocessed int64            `json:"unprocessed"`
	ByType      map[string]int64 `json:"byType"`
}

// LinkReport is the outcome of a debug link-extraction run. Errors are
// carried in the report, never raised.
type LinkReport struct {
	TotalLinks    int      `json:"totalLinks"`
	InternalLinks []string `json:"internalLinks"`
	ExternalLinks []string `json:"externalLinks"`
	ExcludedLinks []string `json:"excludedLinks"`
	Errors        []string `json:"errors"`
}
