package postgres

import (
	"context"
	"fmt"
)

// schema statements are idempotent and run in order on startup
var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id            BIGSERIAL PRIMARY KEY,
		platform      VARCHAR(50) NOT NULL,
		url           TEXT NOT NULL UNIQUE,
		name          VARCHAR(255) NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		stars         INTEGER NOT NULL DEFAULT 0,
		language      VARCHAR(50) NOT NULL DEFAULT '',
		topics        TEXT[] NOT NULL DEFAULT '{}',
		quality_score NUMERIC(4,2),
		status        VARCHAR(20) NOT NULL DEFAULT 'discovered',
		scraped_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_platform ON projects (platform)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_status ON projects (status)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_language ON projects (language)`,
	`CREATE TABLE IF NOT EXISTS content (
		id               BIGSERIAL PRIMARY KEY,
		project_id       BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		content_type     VARCHAR(50) NOT NULL,
		title            VARCHAR(255) NOT NULL,
		slug             VARCHAR(255) NOT NULL UNIQUE,
		raw_content      TEXT NOT NULL,
		enhanced_content TEXT NOT NULL DEFAULT '',
		meta_description VARCHAR(160) NOT NULL DEFAULT '',
		tags             TEXT[] NOT NULL DEFAULT '{}',
		status           VARCHAR(20) NOT NULL DEFAULT 'draft',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_project_id ON content (project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_content_type ON content (content_type)`,
	`CREATE INDEX IF NOT EXISTS idx_content_status ON content (status)`,
}

// Migrate creates the schema if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
