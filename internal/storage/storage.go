// Package storage owns the relational side of the pipeline: the entity
// resolver that keeps categories, reporters, and publishers unique by name,
// and the writer that persists articles, images, and summaries.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	pq "github.com/lib/pq"

	"newsharvest/internal/config"
)

// Store executes all database operations over a single injected handle.
type Store struct {
	db          *sqlx.DB
	autoMigrate bool
}

// Open establishes the database connection described by cfg and verifies it
// with a ping before any pipeline work starts.
func Open(cfg config.SQLConfig) (*Store, error) {
	if cfg.Driver == "" || cfg.DSN == "" {
		return nil, errors.New("sql config missing driver or dsn")
	}
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sql connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sql connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime.Duration > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration)
	}

	store := &Store{db: db, autoMigrate: cfg.AutoMigrate}
	if cfg.AutoMigrate {
		if err := store.ensureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store, nil
}

// NewStore wraps an existing handle. Used by tests and callers that manage
// the connection themselves.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying DB connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS categories (
		    id BIGSERIAL PRIMARY KEY,
		    name TEXT NOT NULL UNIQUE,
		    description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS reporters (
		    id BIGSERIAL PRIMARY KEY,
		    name TEXT NOT NULL UNIQUE,
		    email TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS publishers (
		    id BIGSERIAL PRIMARY KEY,
		    name TEXT NOT NULL UNIQUE,
		    email TEXT,
		    phone_number TEXT,
		    head_office_address TEXT,
		    website TEXT,
		    facebook TEXT,
		    twitter TEXT,
		    linkedin TEXT,
		    instagram TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS news (
		    id BIGSERIAL PRIMARY KEY,
		    category_id BIGINT NOT NULL REFERENCES categories (id),
		    author_id BIGINT NOT NULL REFERENCES reporters (id),
		    publisher_id BIGINT NOT NULL REFERENCES publishers (id),
		    published_at TIMESTAMPTZ,
		    title TEXT NOT NULL,
		    body TEXT,
		    link TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS images (
		    id BIGSERIAL PRIMARY KEY,
		    news_id BIGINT NOT NULL REFERENCES news (id),
		    image_url TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
		    id BIGSERIAL PRIMARY KEY,
		    news_id BIGINT NOT NULL REFERENCES news (id),
		    summary_text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_news_published_at ON news (published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_images_news_id ON images (news_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(schemaCtx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// getID runs a query expected to return a single surrogate ID. When the
// schema has not been bootstrapped yet and auto-migration is on, it applies
// the schema once and retries.
func (s *Store) getID(ctx context.Context, query string, args ...any) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store not initialised")
	}
	var id int64
	err := s.db.GetContext(ctx, &id, query, args...)
	if err != nil && s.autoMigrate && isUndefinedTableErr(err) {
		if schemaErr := s.ensureSchema(ctx); schemaErr != nil {
			return 0, fmt.Errorf("ensure schema: %w", schemaErr)
		}
		err = s.db.GetContext(ctx, &id, query, args...)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func isUndefinedTableErr(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42P01"
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "relation") && strings.Contains(lower, "does not exist")
}
