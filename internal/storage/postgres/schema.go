package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently at startup. The UNIQUE constraint on
// identity_key is what makes concurrent ingestions race-safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS postings (
		id           UUID PRIMARY KEY,
		identity_key TEXT NOT NULL,
		title        TEXT NOT NULL DEFAULT '',
		company      TEXT NOT NULL DEFAULT '',
		location     TEXT NOT NULL DEFAULT '',
		salary_min   BIGINT,
		salary_max   BIGINT,
		is_remote    BOOLEAN NOT NULL DEFAULT FALSE,
		skills       TEXT[] NOT NULL DEFAULT '{}',
		description  TEXT NOT NULL DEFAULT '',
		posting_url  TEXT NOT NULL DEFAULT '',
		source       TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT postings_identity_key_uq UNIQUE (identity_key)
	)`,
	`CREATE INDEX IF NOT EXISTS postings_source_idx ON postings (source)`,
	`CREATE INDEX IF NOT EXISTS postings_created_at_idx ON postings (created_at DESC)`,
}

// Migrate creates the postings table and its indexes if missing
func (r *PostingRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}
