// Package discover turns a publisher listing page into the set of article
// URLs it links to.
package discover

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Links collects the href of every anchor in the listing document, in
// document order. Absolute hrefs pass through unchanged; relative hrefs are
// resolved against the listing page's own scheme and host. Anchors without an
// href are skipped. Duplicates are preserved: de-duplication is a property of
// persistence, not discovery.
func Links(listingURL *url.URL, body []byte) ([]*url.URL, error) {
	if listingURL == nil {
		return nil, fmt.Errorf("listing URL is nil")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	var links []*url.URL
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}

		u, err := listingURL.Parse(href)
		if err != nil {
			return
		}
		u.Fragment = ""
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return
		}
		links = append(links, u)
	})

	return links, nil
}
