// Package extract pulls the structured article tuple out of one rendered
// document. It is a pure function of the document and its URL so it can be
// tested without network access.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsharvest/internal/config"
	"newsharvest/pkg/types"
)

// ErrFieldMissing reports a mandatory article field absent from the document.
var ErrFieldMissing = errors.New("mandatory field missing")

// Timestamp layouts accepted from the time element's datetime attribute.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Extractor applies one site's selector conventions to rendered documents.
type Extractor struct {
	site config.SiteConfig
}

// New constructs an extractor for the given selector conventions.
func New(site config.SiteConfig) *Extractor {
	return &Extractor{site: site}
}

// Extract parses the rendered document and returns the article tuple. A
// missing mandatory field (title, byline, timestamp, category) is an error;
// body and images may legitimately be empty.
func (e *Extractor) Extract(pageURL *url.URL, body []byte) (*types.ArticleFields, error) {
	if pageURL == nil {
		return nil, fmt.Errorf("article URL is nil")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse article page: %w", err)
	}

	title := normalizeWhitespace(doc.Find(e.site.TitleSelector).First().Text())
	if title == "" {
		return nil, fmt.Errorf("%w: title (%s)", ErrFieldMissing, e.site.TitleSelector)
	}

	reporter := normalizeWhitespace(doc.Find(e.site.BylineSelector).First().Text())
	if reporter == "" {
		return nil, fmt.Errorf("%w: byline (%s)", ErrFieldMissing, e.site.BylineSelector)
	}

	datetimeAttr, ok := doc.Find(e.site.TimeSelector).First().Attr("datetime")
	if !ok || strings.TrimSpace(datetimeAttr) == "" {
		return nil, fmt.Errorf("%w: datetime attribute (%s)", ErrFieldMissing, e.site.TimeSelector)
	}
	publishedAt, err := parseTimestamp(strings.TrimSpace(datetimeAttr))
	if err != nil {
		return nil, err
	}

	category := normalizeWhitespace(doc.Find(e.site.CategorySelector).First().Text())
	if category == "" {
		return nil, fmt.Errorf("%w: category (%s)", ErrFieldMissing, e.site.CategorySelector)
	}

	var paragraphs []string
	doc.Find(e.site.ParagraphSelector).Each(func(_ int, s *goquery.Selection) {
		if text := normalizeWhitespace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	var images []string
	doc.Find(e.site.ImageSelector).Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok {
			return
		}
		if src = strings.TrimSpace(src); src != "" {
			images = append(images, src)
		}
	})

	host := pageURL.Hostname()
	return &types.ArticleFields{
		Title:         title,
		Reporter:      reporter,
		PublishedAt:   publishedAt,
		Category:      category,
		Body:          strings.Join(paragraphs, "\n"),
		Images:        images,
		SourceURL:     pageURL.String(),
		Publisher:     PublisherIdentity(host),
		PublisherHost: host,
	}, nil
}

// PublisherIdentity derives the publisher natural key from a URL host: the
// second-to-last dot-separated label, eg. "www.prothomalo.com" → "prothomalo".
func PublisherIdentity(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}
	return labels[len(labels)-2]
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable datetime %q", value)
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
