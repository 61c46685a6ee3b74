package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebridge/codebridge/pkg/api"
	"github.com/codebridge/codebridge/pkg/storage"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStoreWithDB(db), mock
}

func projectColumns() []string {
	return []string{"id", "platform", "url", "name", "description", "stars", "language", "topics", "quality_score", "status", "scraped_at"}
}

func contentColumns() []string {
	return []string{"id", "project_id", "content_type", "title", "slug", "raw_content", "enhanced_content", "meta_description", "tags", "status", "created_at"}
}

func TestCreateProject(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO projects")).
		WithArgs("github", "https://github.com/acme/widget", "widget", "", 42, "Go", pq.Array([]string{"cli"}), nil, api.ProjectStatusDiscovered).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scraped_at"}).AddRow(int64(7), now))

	project := &api.Project{
		Platform: "github",
		URL:      "https://github.com/acme/widget",
		Name:     "widget",
		Stars:    42,
		Language: "Go",
		Topics:   []string{"cli"},
		Status:   api.ProjectStatusDiscovered,
	}

	err := store.CreateProject(context.Background(), project)

	require.NoError(t, err)
	assert.Equal(t, int64(7), project.ID)
	assert.Equal(t, now, project.ScrapedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProjectConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO projects")).
		WillReturnError(&pq.Error{Code: "23505"})

	project := &api.Project{
		Platform: "github",
		URL:      "https://github.com/acme/widget",
		Name:     "widget",
		Topics:   []string{},
		Status:   api.ProjectStatusDiscovered,
	}

	err := store.CreateProject(context.Background(), project)

	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestGetProject(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, platform, url, name, description, stars, language, topics, quality_score, status, scraped_at")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(projectColumns()).
			AddRow(int64(7), "github", "https://github.com/acme/widget", "widget", "a widget", 42, "Go", "{cli,tools}", 8.5, "discovered", now))

	project, err := store.GetProject(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "widget", project.Name)
	assert.Equal(t, []string{"cli", "tools"}, project.Topics)
	require.NotNil(t, project.QualityScore)
	assert.InDelta(t, 8.5, *project.QualityScore, 0.001)
}

func TestGetProjectNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, platform")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetProject(context.Background(), 99)

	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListProjectsWithFilter(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM projects WHERE platform = $1")).
		WithArgs("github").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(25)))
	mock.ExpectQuery("ORDER BY scraped_at DESC").
		WithArgs("github", 10, 0).
		WillReturnRows(sqlmock.NewRows(projectColumns()).
			AddRow(int64(1), "github", "https://github.com/a/b", "b", "", 1, "", "{}", nil, "discovered", now).
			AddRow(int64(2), "github", "https://github.com/c/d", "d", "", 2, "", "{}", nil, "analyzed", now))

	projects, total, err := store.ListProjects(context.Background(), api.ProjectFilter{Platform: "github"}, 0, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Len(t, projects, 2)
	assert.Nil(t, projects[0].QualityScore)
}

func TestUpdateProjectNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateProject(context.Background(), &api.Project{
		ID:       99,
		Platform: "github",
		URL:      "https://github.com/acme/widget",
		Name:     "widget",
		Topics:   []string{},
		Status:   api.ProjectStatusDiscovered,
	})

	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateProjectConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.UpdateProject(context.Background(), &api.Project{
		ID:       7,
		Platform: "github",
		URL:      "https://github.com/acme/taken",
		Name:     "widget",
		Topics:   []string{},
		Status:   api.ProjectStatusDiscovered,
	})

	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestDeleteProject(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.DeleteProject(context.Background(), 7)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProjectNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM projects WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteProject(context.Background(), 99)

	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateContent(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO content")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), now))

	content := &api.Content{
		ProjectID:   7,
		ContentType: "blog",
		Title:       "Widget Deep Dive",
		Slug:        "widget-deep-dive",
		RawContent:  "body",
		Tags:        []string{"go"},
		Status:      api.ContentStatusDraft,
	}

	err := store.CreateContent(context.Background(), content)

	require.NoError(t, err)
	assert.Equal(t, int64(3), content.ID)
}

func TestCreateContentSlugConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO content")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := store.CreateContent(context.Background(), &api.Content{
		ProjectID:   7,
		ContentType: "blog",
		Title:       "Widget Deep Dive",
		Slug:        "widget-deep-dive",
		RawContent:  "body",
		Tags:        []string{},
		Status:      api.ContentStatusDraft,
	})

	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestCreateContentMissingProject(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO content")).
		WillReturnError(&pq.Error{Code: "23503"})

	err := store.CreateContent(context.Background(), &api.Content{
		ProjectID:   99,
		ContentType: "blog",
		Title:       "Orphan",
		Slug:        "orphan",
		RawContent:  "body",
		Tags:        []string{},
		Status:      api.ContentStatusDraft,
	})

	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetContentBySlug(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE slug = $1")).
		WithArgs("widget-deep-dive").
		WillReturnRows(sqlmock.NewRows(contentColumns()).
			AddRow(int64(3), int64(7), "blog", "Widget Deep Dive", "widget-deep-dive", "raw", "enhanced", "meta", "{go}", "published", now))

	content, err := store.GetContentBySlug(context.Background(), "widget-deep-dive")

	require.NoError(t, err)
	assert.Equal(t, int64(3), content.ID)
	assert.Equal(t, api.ContentStatusPublished, content.Status)
	assert.Equal(t, []string{"go"}, content.Tags)
}

func TestListContentWithFilters(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM content WHERE project_id = $1 AND content_type = $2")).
		WithArgs(int64(7), "blog").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(int64(7), "blog", 100, 0).
		WillReturnRows(sqlmock.NewRows(contentColumns()).
			AddRow(int64(3), int64(7), "blog", "Widget Deep Dive", "widget-deep-dive", "raw", "", "", "{}", "draft", now))

	items, total, err := store.ListContent(context.Background(), api.ContentFilter{ProjectID: 7, ContentType: "blog"}, 0, 100)

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)
}

func TestDeleteContentNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM content WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteContent(context.Background(), 99)

	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCountProjects(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM projects")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	count, err := store.CountProjects(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
}

func TestMigrate(t *testing.T) {
	store, mock := newMockStore(t)

	for range schema {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	err := store.Migrate(context.Background())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheckFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	store := NewStoreWithDB(db)
	err = store.HealthCheck(context.Background())

	assert.Error(t, err)
}
