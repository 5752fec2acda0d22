package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"newsharvest/pkg/types"
)

// InsertArticle writes the article row referencing already-resolved entity
// IDs and returns its surrogate ID. The source link carries a unique
// constraint; when the link was persisted by an earlier run the existing
// row's ID is returned with created=false and nothing is written.
func (s *Store) InsertArticle(ctx context.Context, fields *types.ArticleFields, ids types.ResolvedIDs) (int64, bool, error) {
	if fields == nil {
		return 0, false, errors.New("article fields are nil")
	}
	const insert = `
        INSERT INTO news (category_id, author_id, publisher_id, published_at, title, body, link)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (link) DO NOTHING
        RETURNING id`
	id, err := s.getID(ctx, insert,
		ids.CategoryID,
		ids.ReporterID,
		ids.PublisherID,
		fields.PublishedAt,
		fields.Title,
		fields.Body,
		fields.SourceURL,
	)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("insert article %q: %w", fields.SourceURL, err)
	}

	// DO NOTHING suppresses RETURNING on conflict; look up the earlier row.
	const lookup = `SELECT id FROM news WHERE link = $1`
	id, err = s.getID(ctx, lookup, fields.SourceURL)
	if err != nil {
		return 0, false, fmt.Errorf("lookup article %q: %w", fields.SourceURL, err)
	}
	return id, false, nil
}

// InsertImage writes one image row owned by an existing article.
func (s *Store) InsertImage(ctx context.Context, newsID int64, imageURL string) (int64, error) {
	const query = `
        INSERT INTO images (news_id, image_url)
        VALUES ($1, $2)
        RETURNING id`
	id, err := s.getID(ctx, query, newsID, imageURL)
	if err != nil {
		return 0, fmt.Errorf("insert image for article %d: %w", newsID, err)
	}
	return id, nil
}

// InsertSummary writes one summary row owned by an existing article.
// Summaries may also be supplied out-of-band, independent of the scrape flow.
func (s *Store) InsertSummary(ctx context.Context, newsID int64, text string) (int64, error) {
	const query = `
        INSERT INTO summaries (news_id, summary_text)
        VALUES ($1, $2)
        RETURNING id`
	id, err := s.getID(ctx, query, newsID, text)
	if err != nil {
		return 0, fmt.Errorf("insert summary for article %d: %w", newsID, err)
	}
	return id, nil
}
