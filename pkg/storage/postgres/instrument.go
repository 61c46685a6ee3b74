package postgres

import (
	"context"
	"time"

	"github.com/codebridge/codebridge/pkg/api"
	"github.com/codebridge/codebridge/pkg/observability"
)

// InstrumentedStore records operation counts and latencies for every
// store call it forwards.
type InstrumentedStore struct {
	inner   api.Store
	metrics *observability.Metrics
}

// NewInstrumentedStore wraps a store with Prometheus instrumentation
func NewInstrumentedStore(inner api.Store, metrics *observability.Metrics) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, metrics: metrics}
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.StorageOperationsTotal.WithLabelValues(op, status).Inc()
	s.metrics.StorageOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *InstrumentedStore) CreateProject(ctx context.Context, project *api.Project) error {
	start := time.Now()
	err := s.inner.CreateProject(ctx, project)
	s.observe("create_project", start, err)
	return err
}

func (s *InstrumentedStore) GetProject(ctx context.Context, id int64) (*api.Project, error) {
	start := time.Now()
	project, err := s.inner.GetProject(ctx, id)
	s.observe("get_project", start, err)
	return project, err
}

func (s *InstrumentedStore) ListProjects(ctx context.Context, filter api.ProjectFilter, skip, limit int) ([]*api.Project, int64, error) {
	start := time.Now()
	projects, total, err := s.inner.ListProjects(ctx, filter, skip, limit)
	s.observe("list_projects", start, err)
	return projects, total, err
}

func (s *InstrumentedStore) UpdateProject(ctx context.Context, project *api.Project) error {
	start := time.Now()
	err := s.inner.UpdateProject(ctx, project)
	s.observe("update_project", start, err)
	return err
}

func (s *InstrumentedStore) DeleteProject(ctx context.Context, id int64) error {
	start := time.Now()
	err := s.inner.DeleteProject(ctx, id)
	s.observe("delete_project", start, err)
	return err
}

func (s *InstrumentedStore) CreateContent(ctx context.Context, content *api.Content) error {
	start := time.Now()
	err := s.inner.CreateContent(ctx, content)
	s.observe("create_content", start, err)
	return err
}

func (s *InstrumentedStore) GetContent(ctx context.Context, id int64) (*api.Content, error) {
	start := time.Now()
	content, err := s.inner.GetContent(ctx, id)
	s.observe("get_content", start, err)
	return content, err
}

func (s *InstrumentedStore) GetContentBySlug(ctx context.Context, slug string) (*api.Content, error) {
	start := time.Now()
	content, err := s.inner.GetContentBySlug(ctx, slug)
	s.observe("get_content_by_slug", start, err)
	return content, err
}

func (s *InstrumentedStore) ListContent(ctx context.Context, filter api.ContentFilter, skip, limit int) ([]*api.Content, int64, error) {
	start := time.Now()
	items, total, err := s.inner.ListContent(ctx, filter, skip, limit)
	s.observe("list_content", start, err)
	return items, total, err
}

func (s *InstrumentedStore) UpdateContent(ctx context.Context, content *api.Content) error {
	start := time.Now()
	err := s.inner.UpdateContent(ctx, content)
	s.observe("update_content", start, err)
	return err
}

func (s *InstrumentedStore) DeleteContent(ctx context.Context, id int64) error {
	start := time.Now()
	err := s.inner.DeleteContent(ctx, id)
	s.observe("delete_content", start, err)
	return err
}

func (s *InstrumentedStore) CountProjects(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := s.inner.CountProjects(ctx)
	s.observe("count_projects", start, err)
	return count, err
}

func (s *InstrumentedStore) CountContent(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := s.inner.CountContent(ctx)
	s.observe("count_content", start, err)
	return count, err
}

func (s *InstrumentedStore) HealthCheck(ctx context.Context) error {
	return s.inner.HealthCheck(ctx)
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}

var _ api.Store = (*InstrumentedStore)(nil)
