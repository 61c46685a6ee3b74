// Package postgres implements the store on PostgreSQL with an optional
// two-level (in-process LRU + Redis) read cache.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/codebridge/codebridge/pkg/api"
	"github.com/codebridge/codebridge/pkg/storage"
)

// PostgresStore implements api.Store using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	config storage.Config
}

// NewPostgresStore opens a connection pool and verifies connectivity
func NewPostgresStore(config storage.Config) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(config.PostgresMaxConns)
	db.SetMaxIdleConns(config.PostgresMinConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), config.PostgresTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresStore{db: db, config: config}, nil
}

// NewStoreWithDB wraps an existing database handle. Used in tests.
func NewStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, config: storage.DefaultConfig()}
}

// DB exposes the underlying handle for health checks and pool metrics
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// HealthCheck verifies database connectivity
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres unhealthy: %w", err)
	}
	return nil
}

// Project operations

func (s *PostgresStore) CreateProject(ctx context.Context, project *api.Project) error {
	query := `
		INSERT INTO projects (platform, url, name, description, stars, language, topics, quality_score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, scraped_at
	`

	err := s.db.QueryRowContext(ctx, query,
		project.Platform,
		project.URL,
		project.Name,
		project.Description,
		project.Stars,
		project.Language,
		pq.Array(project.Topics),
		project.QualityScore,
		project.Status,
	).Scan(&project.ID, &project.ScrapedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project with url %s: %w", project.URL, storage.ErrConflict)
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id int64) (*api.Project, error) {
	query := `
		SELECT id, platform, url, name, description, stars, language, topics, quality_score, status, scraped_at
		FROM projects
		WHERE id = $1
	`

	var project api.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.Platform,
		&project.URL,
		&project.Name,
		&project.Description,
		&project.Stars,
		&project.Language,
		pq.Array(&project.Topics),
		&project.QualityScore,
		&project.Status,
		&project.ScrapedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, storage.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, filter api.ProjectFilter, skip, limit int) ([]*api.Project, int64, error) {
	where, args := buildProjectFilter(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM projects" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, platform, url, name, description, stars, language, topics, quality_score, status, scraped_at
		FROM projects%s
		ORDER BY scraped_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	rows, err := s.db.QueryContext(ctx, query, append(args, limit, skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*api.Project, 0)
	for rows.Next() {
		var p api.Project
		err := rows.Scan(
			&p.ID, &p.Platform, &p.URL, &p.Name, &p.Description, &p.Stars,
			&p.Language, pq.Array(&p.Topics), &p.QualityScore, &p.Status, &p.ScrapedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, total, nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, project *api.Project) error {
	query := `
		UPDATE projects
		SET platform = $1, url = $2, name = $3, description = $4, stars = $5,
		    language = $6, topics = $7, quality_score = $8, status = $9
		WHERE id = $10
	`

	result, err := s.db.ExecContext(ctx, query,
		project.Platform,
		project.URL,
		project.Name,
		project.Description,
		project.Stars,
		project.Language,
		pq.Array(project.Topics),
		project.QualityScore,
		project.Status,
		project.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project with url %s: %w", project.URL, storage.ErrConflict)
		}
		return fmt.Errorf("failed to update project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project %d: %w", project.ID, storage.ErrNotFound)
	}

	return nil
}

// DeleteProject removes a project. Content rows cascade via the foreign key.
func (s *PostgresStore) DeleteProject(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project %d: %w", id, storage.ErrNotFound)
	}

	return nil
}

// Content operations

func (s *PostgresStore) CreateContent(ctx context.Context, content *api.Content) error {
	query := `
		INSERT INTO content (project_id, content_type, title, slug, raw_content, enhanced_content, meta_description, tags, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		content.ProjectID,
		content.ContentType,
		content.Title,
		content.Slug,
		content.RawContent,
		content.EnhancedContent,
		content.MetaDescription,
		pq.Array(content.Tags),
		content.Status,
	).Scan(&content.ID, &content.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("content with slug %s: %w", content.Slug, storage.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("project %d: %w", content.ProjectID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to create content: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetContent(ctx context.Context, id int64) (*api.Content, error) {
	return s.getContent(ctx, "id = $1", id)
}

func (s *PostgresStore) GetContentBySlug(ctx context.Context, slug string) (*api.Content, error) {
	return s.getContent(ctx, "slug = $1", slug)
}

func (s *PostgresStore) getContent(ctx context.Context, where string, arg interface{}) (*api.Content, error) {
	query := `
		SELECT id, project_id, content_type, title, slug, raw_content, enhanced_content, meta_description, tags, status, created_at
		FROM content
		WHERE ` + where

	var content api.Content
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&content.ID,
		&content.ProjectID,
		&content.ContentType,
		&content.Title,
		&content.Slug,
		&content.RawContent,
		&content.EnhancedContent,
		&content.MetaDescription,
		pq.Array(&content.Tags),
		&content.Status,
		&content.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("content %v: %w", arg, storage.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return &content, nil
}

func (s *PostgresStore) ListContent(ctx context.Context, filter api.ContentFilter, skip, limit int) ([]*api.Content, int64, error) {
	where, args := buildContentFilter(filter)

	var total int64
	countQuery := "SELECT COUNT(*) FROM content" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count content: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, project_id, content_type, title, slug, raw_content, enhanced_content, meta_description, tags, status, created_at
		FROM content%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	rows, err := s.db.QueryContext(ctx, query, append(args, limit, skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list content: %w", err)
	}
	defer rows.Close()

	items := make([]*api.Content, 0)
	for rows.Next() {
		var c api.Content
		err := rows.Scan(
			&c.ID, &c.ProjectID, &c.ContentType, &c.Title, &c.Slug, &c.RawContent,
			&c.EnhancedContent, &c.MetaDescription, pq.Array(&c.Tags), &c.Status, &c.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan content: %w", err)
		}
		items = append(items, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate content: %w", err)
	}

	return items, total, nil
}

func (s *PostgresStore) UpdateContent(ctx context.Context, content *api.Content) error {
	query := `
		UPDATE content
		SET project_id = $1, content_type = $2, title = $3, slug = $4, raw_content = $5,
		    enhanced_content = $6, meta_description = $7, tags = $8, status = $9
		WHERE id = $10
	`

	result, err := s.db.ExecContext(ctx, query,
		content.ProjectID,
		content.ContentType,
		content.Title,
		content.Slug,
		content.RawContent,
		content.EnhancedContent,
		content.MetaDescription,
		pq.Array(content.Tags),
		content.Status,
		content.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("content with slug %s: %w", content.Slug, storage.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("project %d: %w", content.ProjectID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to update content: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("content %d: %w", content.ID, storage.ErrNotFound)
	}

	return nil
}

func (s *PostgresStore) DeleteContent(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM content WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("content %d: %w", id, storage.ErrNotFound)
	}

	return nil
}

// Aggregate counts

func (s *PostgresStore) CountProjects(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountContent(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count content: %w", err)
	}
	return count, nil
}

// Filter helpers

func buildProjectFilter(filter api.ProjectFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.Platform != "" {
		args = append(args, strings.ToLower(filter.Platform))
		clauses = append(clauses, fmt.Sprintf("platform = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, strings.ToLower(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Language != "" {
		args = append(args, filter.Language)
		clauses = append(clauses, fmt.Sprintf("language = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func buildContentFilter(filter api.ContentFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.ProjectID > 0 {
		args = append(args, filter.ProjectID)
		clauses = append(clauses, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if filter.ContentType != "" {
		args = append(args, strings.ToLower(filter.ContentType))
		clauses = append(clauses, fmt.Sprintf("content_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, strings.ToLower(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
