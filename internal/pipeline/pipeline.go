// Package pipeline drives one ingestion run: discover article links from the
// listing page, then for each link fetch, extract, resolve, and persist,
// isolating failures so one bad article never aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsharvest/internal/config"
	"newsharvest/internal/discover"
	"newsharvest/internal/fetcher"
	"newsharvest/internal/storage"
	"newsharvest/pkg/types"
)

// Resolver maps natural keys to surrogate IDs, creating rows on first sight.
type Resolver interface {
	ResolveCategory(ctx context.Context, name, description string) (int64, error)
	ResolveReporter(ctx context.Context, name, email string) (int64, error)
	ResolvePublisher(ctx context.Context, name string, attrs storage.PublisherAttrs) (int64, error)
}

// Writer persists article, image, and summary rows.
type Writer interface {
	InsertArticle(ctx context.Context, fields *types.ArticleFields, ids types.ResolvedIDs) (int64, bool, error)
	InsertImage(ctx context.Context, newsID int64, imageURL string) (int64, error)
	InsertSummary(ctx context.Context, newsID int64, text string) (int64, error)
}

// Extractor turns one rendered document into the article tuple.
type Extractor interface {
	Extract(pageURL *url.URL, body []byte) (*types.ArticleFields, error)
}

// Engine orchestrates the per-link state machine across one run.
type Engine struct {
	cfg       config.Config
	fetcher   fetcher.Fetcher
	extractor Extractor
	resolver  Resolver
	writer    Writer
	logger    *slog.Logger
}

// New assembles an engine from its collaborators. The database handle behind
// resolver and writer is injected, never ambient state.
func New(cfg config.Config, f fetcher.Fetcher, ex Extractor, res Resolver, w Writer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:       cfg,
		fetcher:   f,
		extractor: ex,
		resolver:  res,
		writer:    w,
		logger:    logger,
	}
}

// Run processes the configured listing page to completion and returns the
// run report. Only a listing-level failure (the listing page itself cannot be
// fetched or parsed) is returned as an error; per-article failures are
// recorded in the report and the run continues.
func (e *Engine) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:      uuid.NewString(),
		ListingURL: e.cfg.Listing.URL,
		Started:    time.Now(),
	}
	logger := e.logger.With("run_id", report.RunID, "listing_url", e.cfg.Listing.URL)

	listingURL, err := url.Parse(e.cfg.Listing.URL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	listing, err := e.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing page: %w", err)
	}

	links, err := discover.Links(listingURL, listing.Body)
	if err != nil {
		return nil, fmt.Errorf("discover article links: %w", err)
	}
	if max := e.cfg.Listing.MaxArticles; max > 0 && len(links) > max {
		links = links[:max]
	}
	report.Discovered = len(links)
	logger.Info("discovered article links", "count", len(links))

	report.Links = make([]LinkReport, len(links))

	concurrency := e.cfg.Worker.Concurrency
	if concurrency <= 1 {
		for i, link := range links {
			if ctx.Err() != nil {
				break
			}
			report.Links[i] = e.processLink(ctx, link, logger)
		}
	} else {
		pool, err := NewWorkerPool(ctx, concurrency, e.cfg.Worker.QueueSize)
		if err != nil {
			return nil, err
		}
		for i, link := range links {
			i, link := i, link
			report.Links[i] = LinkReport{URL: link.String()}
			submitErr := pool.Submit(ctx, func(workerCtx context.Context) {
				report.Links[i] = e.processLink(workerCtx, link, logger)
			})
			if submitErr != nil {
				report.Links[i] = LinkReport{URL: link.String(), Stage: StageFetch, Err: submitErr}
			}
		}
		pool.Close()
	}

	for i := range report.Links {
		lr := report.Links[i]
		switch {
		case lr.Err != nil:
			report.Failed++
		case lr.Created:
			report.Persisted++
		case lr.ArticleID != 0:
			report.AlreadyPersisted++
		}
	}
	report.Finished = time.Now()
	logger.Info("run complete",
		"persisted", report.Persisted,
		"already_persisted", report.AlreadyPersisted,
		"failed", report.Failed,
	)
	return report, nil
}

// processLink runs one link through Fetched → Extracted → Resolved →
// Persisted. A failure at any stage terminates this link only.
func (e *Engine) processLink(ctx context.Context, link *url.URL, logger *slog.Logger) LinkReport {
	lr := LinkReport{URL: link.String()}
	logger = logger.With("url", link.String())

	lr.Stage = StageFetch
	page, err := e.fetcher.Fetch(ctx, link)
	if err != nil {
		lr.Err = &StageError{Stage: StageFetch, URL: lr.URL, Err: err}
		logger.Warn("fetch failed", "error", err)
		return lr
	}

	lr.Stage = StageExtract
	fields, err := e.extractor.Extract(link, page.Body)
	if err != nil {
		lr.Err = &StageError{Stage: StageExtract, URL: lr.URL, Err: err}
		logger.Warn("extraction failed", "error", err)
		return lr
	}

	lr.Stage = StageResolve
	ids, err := e.resolveEntities(ctx, fields)
	if err != nil {
		lr.Err = &StageError{Stage: StageResolve, URL: lr.URL, Err: err}
		logger.Warn("entity resolution failed", "error", err)
		return lr
	}

	lr.Stage = StagePersist
	articleID, created, err := e.writer.InsertArticle(ctx, fields, ids)
	if err != nil {
		lr.Err = &StageError{Stage: StagePersist, URL: lr.URL, Err: err}
		logger.Warn("persist failed", "error", err)
		return lr
	}
	lr.ArticleID = articleID
	lr.Created = created
	if !created {
		logger.Info("article already persisted", "article_id", articleID)
		return lr
	}

	for _, img := range fields.Images {
		if _, err := e.writer.InsertImage(ctx, articleID, img); err != nil {
			lr.Err = &StageError{Stage: StagePersist, URL: lr.URL, Err: err}
			logger.Warn("image persist failed", "image_url", img, "error", err)
			return lr
		}
		lr.Images++
	}

	if e.cfg.Summary.Enabled {
		if summary := leadSummary(fields.Body, e.cfg.Summary.MaxLength); summary != "" {
			if _, err := e.writer.InsertSummary(ctx, articleID, summary); err != nil {
				lr.Err = &StageError{Stage: StagePersist, URL: lr.URL, Err: err}
				logger.Warn("summary persist failed", "error", err)
				return lr
			}
		}
	}

	logger.Info("article persisted", "article_id", articleID, "images", lr.Images)
	return lr
}

// resolveEntities performs the lookup-or-create calls in foreign-key order so
// every surrogate ID exists before the article row references it.
func (e *Engine) resolveEntities(ctx context.Context, fields *types.ArticleFields) (types.ResolvedIDs, error) {
	var ids types.ResolvedIDs

	categoryID, err := e.resolver.ResolveCategory(ctx, fields.Category, categoryDescription(fields.Category))
	if err != nil {
		return ids, err
	}
	reporterID, err := e.resolver.ResolveReporter(ctx, fields.Reporter, reporterEmail(fields.Reporter, fields.PublisherHost))
	if err != nil {
		return ids, err
	}
	publisherID, err := e.resolver.ResolvePublisher(ctx, fields.Publisher, publisherAttrs(fields))
	if err != nil {
		return ids, err
	}

	ids.CategoryID = categoryID
	ids.ReporterID = reporterID
	ids.PublisherID = publisherID
	return ids, nil
}

// Derived attributes are best-effort placeholders, not authoritative data;
// they are stored on first sight only and never overwritten.

func categoryDescription(name string) string {
	return fmt.Sprintf("%s news section", name)
}

func reporterEmail(name, host string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(name), "."))
	if host == "" {
		return slug + "@unknown.invalid"
	}
	return slug + "@" + host
}

func publisherAttrs(fields *types.ArticleFields) storage.PublisherAttrs {
	attrs := storage.PublisherAttrs{}
	if fields.PublisherHost != "" {
		attrs.Email = "contact@" + fields.PublisherHost
		attrs.Website = "https://" + fields.PublisherHost
	}
	return attrs
}

// leadSummary derives a bounded summary from the opening of the article body,
// cutting on a word boundary.
func leadSummary(body string, maxLen int) string {
	first := body
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		first = body[:idx]
	}
	first = strings.TrimSpace(first)
	if first == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(first)
	if len(runes) <= maxLen {
		return first
	}
	cut := string(runes[:maxLen])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…"
}
