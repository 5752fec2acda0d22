package storage

import (
	"context"
	"fmt"
)

// PublisherAttrs carries the descriptive attributes stored on first sight of
// a publisher. They are never updated afterwards.
type PublisherAttrs struct {
	Email             string
	PhoneNumber       string
	HeadOfficeAddress string
	Website           string
	Facebook          string
	Twitter           string
	LinkedIn          string
	Instagram         string
}

// Each resolver is an atomic lookup-or-create keyed on the entity's name.
// The no-op DO UPDATE makes RETURNING yield the existing row's id on
// conflict, so two concurrent resolutions of a new name cannot create two
// rows and repeated runs reuse the same surrogate ID.

// ResolveCategory returns the surrogate ID for a category name, creating the
// row with the supplied description on first sight.
func (s *Store) ResolveCategory(ctx context.Context, name, description string) (int64, error) {
	const query = `
        INSERT INTO categories (name, description)
        VALUES ($1, $2)
        ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
        RETURNING id`
	id, err := s.getID(ctx, query, name, description)
	if err != nil {
		return 0, fmt.Errorf("resolve category %q: %w", name, err)
	}
	return id, nil
}

// ResolveReporter returns the surrogate ID for a reporter name, creating the
// row with the derived email on first sight.
func (s *Store) ResolveReporter(ctx context.Context, name, email string) (int64, error) {
	const query = `
        INSERT INTO reporters (name, email)
        VALUES ($1, $2)
        ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
        RETURNING id`
	id, err := s.getID(ctx, query, name, email)
	if err != nil {
		return 0, fmt.Errorf("resolve reporter %q: %w", name, err)
	}
	return id, nil
}

// ResolvePublisher returns the surrogate ID for a publisher name, creating
// the row with its descriptive attributes on first sight.
func (s *Store) ResolvePublisher(ctx context.Context, name string, attrs PublisherAttrs) (int64, error) {
	const query = `
        INSERT INTO publishers (name, email, phone_number, head_office_address, website, facebook, twitter, linkedin, instagram)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
        RETURNING id`
	id, err := s.getID(ctx, query,
		name,
		attrs.Email,
		attrs.PhoneNumber,
		attrs.HeadOfficeAddress,
		attrs.Website,
		attrs.Facebook,
		attrs.Twitter,
		attrs.LinkedIn,
		attrs.Instagram,
	)
	if err != nil {
		return 0, fmt.Errorf("resolve publisher %q: %w", name, err)
	}
	return id, nil
}
