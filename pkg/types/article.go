package types

import (
	"net/url"
	"time"
)

// Page represents a fully rendered document fetched from a URL.
type Page struct {
	URL             *url.URL
	FinalURL        *url.URL
	Body            []byte
	ContentType     string
	StatusCode      int
	FetchedAt       time.Time
	Rendered        bool
	ResponseLatency time.Duration
}

// ArticleFields is the structured tuple extracted from one article page.
// Extraction is a pure function of the document plus its URL; resolution
// against stored entities happens later in the pipeline.
type ArticleFields struct {
	Title       string
	Reporter    string
	PublishedAt time.Time
	Category    string
	Body        string
	Images      []string
	SourceURL   string
	// Publisher is the natural key derived from the source URL's host,
	// eg. host "www.prothomalo.com" yields "prothomalo".
	Publisher string
	// PublisherHost keeps the full host for derived publisher attributes.
	PublisherHost string
}

// ResolvedIDs carries the surrogate identifiers an article row references.
type ResolvedIDs struct {
	CategoryID  int64
	ReporterID  int64
	PublisherID int64
}
