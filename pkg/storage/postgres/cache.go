package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/codebridge/codebridge/pkg/api"
	"github.com/codebridge/codebridge/pkg/observability"
	"github.com/codebridge/codebridge/pkg/storage"
)

// CachedStore layers an in-process LRU (L1) and Redis (L2) read cache over
// another store. Single-record reads are cached; lists always hit the
// database. Writes invalidate the affected keys.
type CachedStore struct {
	inner   api.Store
	l1      *lru.LRU[string, []byte]
	redis   *redis.Client
	config  storage.Config
	metrics *observability.Metrics
}

// NewCachedStore builds the cache layers from config. When the Redis URL is
// empty the store runs with the in-process cache only. The metrics handle
// may be nil.
func NewCachedStore(inner api.Store, config storage.Config, metrics *observability.Metrics) (*CachedStore, error) {
	maxEntries := config.L1CacheSize
	if maxEntries < 16 {
		maxEntries = 16
	}
	l1 := lru.NewLRU[string, []byte](maxEntries, nil, config.CacheTTL)

	var client *redis.Client
	if config.RedisURL != "" {
		client = redis.NewClient(&redis.Options{
			Addr:     config.RedisURL,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
			PoolSize: config.RedisPoolSize,
		})

		ctx, cancel := context.WithTimeout(context.Background(), config.PostgresTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	return &CachedStore{
		inner:   inner,
		l1:      l1,
		redis:   client,
		config:  config,
		metrics: metrics,
	}, nil
}

// Redis exposes the client for health checks. May be nil.
func (c *CachedStore) Redis() *redis.Client {
	return c.redis
}

// Close closes the Redis connection and the wrapped store
func (c *CachedStore) Close() error {
	c.l1.Purge()
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return err
		}
	}
	return c.inner.Close()
}

// HealthCheck delegates to the wrapped store
func (c *CachedStore) HealthCheck(ctx context.Context) error {
	return c.inner.HealthCheck(ctx)
}

func projectKey(id int64) string        { return fmt.Sprintf("project:%d", id) }
func contentKey(id int64) string        { return fmt.Sprintf("content:%d", id) }
func contentSlugKey(slug string) string { return fmt.Sprintf("content:slug:%s", slug) }

// lookup checks L1 then Redis, unmarshaling into dst on a hit
func (c *CachedStore) lookup(ctx context.Context, key, keyType string, dst interface{}) bool {
	if data, ok := c.l1.Get(key); ok {
		if err := json.Unmarshal(data, dst); err == nil {
			c.recordHit("l1", keyType)
			return true
		}
	}
	c.recordMiss("l1", keyType)

	if c.redis != nil {
		if data, err := c.redis.Get(ctx, key).Bytes(); err == nil {
			if err := json.Unmarshal(data, dst); err == nil {
				c.l1.Add(key, data)
				c.recordHit("redis", keyType)
				return true
			}
		}
		c.recordMiss("redis", keyType)
	}
	return false
}

// store writes the value into both cache layers
func (c *CachedStore) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.l1.Add(key, data)
	if c.redis != nil {
		c.redis.Set(ctx, key, data, c.config.CacheTTL)
	}
}

// invalidate drops keys from both cache layers
func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		c.l1.Remove(key)
	}
	if c.redis != nil && len(keys) > 0 {
		c.redis.Del(ctx, keys...)
	}
}

func (c *CachedStore) recordHit(cacheType, keyType string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(cacheType, keyType).Inc()
	}
}

func (c *CachedStore) recordMiss(cacheType, keyType string) {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(cacheType, keyType).Inc()
	}
}

// Project operations

func (c *CachedStore) CreateProject(ctx context.Context, project *api.Project) error {
	return c.inner.CreateProject(ctx, project)
}

func (c *CachedStore) GetProject(ctx context.Context, id int64) (*api.Project, error) {
	key := projectKey(id)

	var cached api.Project
	if c.lookup(ctx, key, "project", &cached) {
		return &cached, nil
	}

	project, err := c.inner.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, project)
	return project, nil
}

func (c *CachedStore) ListProjects(ctx context.Context, filter api.ProjectFilter, skip, limit int) ([]*api.Project, int64, error) {
	return c.inner.ListProjects(ctx, filter, skip, limit)
}

func (c *CachedStore) UpdateProject(ctx context.Context, project *api.Project) error {
	if err := c.inner.UpdateProject(ctx, project); err != nil {
		return err
	}
	c.invalidate(ctx, projectKey(project.ID))
	return nil
}

func (c *CachedStore) DeleteProject(ctx context.Context, id int64) error {
	// Content rows cascade in the database, so their cache entries must be
	// dropped too. Keys are discoverable only through the content listing.
	keys := []string{projectKey(id)}
	if items, _, err := c.inner.ListContent(ctx, api.ContentFilter{ProjectID: id}, 0, maxCascadeInvalidation); err == nil {
		for _, item := range items {
			keys = append(keys, contentKey(item.ID), contentSlugKey(item.Slug))
		}
	}

	if err := c.inner.DeleteProject(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, keys...)
	return nil
}

// maxCascadeInvalidation bounds the cascade invalidation listing
const maxCascadeInvalidation = 1000

// Content operations

func (c *CachedStore) CreateContent(ctx context.Context, content *api.Content) error {
	return c.inner.CreateContent(ctx, content)
}

func (c *CachedStore) GetContent(ctx context.Context, id int64) (*api.Content, error) {
	key := contentKey(id)

	var cached api.Content
	if c.lookup(ctx, key, "content", &cached) {
		return &cached, nil
	}

	content, err := c.inner.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, content)
	return content, nil
}

func (c *CachedStore) GetContentBySlug(ctx context.Context, slug string) (*api.Content, error) {
	key := contentSlugKey(slug)

	var cached api.Content
	if c.lookup(ctx, key, "content", &cached) {
		return &cached, nil
	}

	content, err := c.inner.GetContentBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, content)
	return content, nil
}

func (c *CachedStore) ListContent(ctx context.Context, filter api.ContentFilter, skip, limit int) ([]*api.Content, int64, error) {
	return c.inner.ListContent(ctx, filter, skip, limit)
}

func (c *CachedStore) UpdateContent(ctx context.Context, content *api.Content) error {
	// The slug may change on update, so the previous slug key has to be
	// invalidated along with the new one.
	keys := []string{contentKey(content.ID), contentSlugKey(content.Slug)}
	if existing, err := c.inner.GetContent(ctx, content.ID); err == nil && existing.Slug != content.Slug {
		keys = append(keys, contentSlugKey(existing.Slug))
	}

	if err := c.inner.UpdateContent(ctx, content); err != nil {
		return err
	}
	c.invalidate(ctx, keys...)
	return nil
}

func (c *CachedStore) DeleteContent(ctx context.Context, id int64) error {
	keys := []string{contentKey(id)}
	if existing, err := c.inner.GetContent(ctx, id); err == nil {
		keys = append(keys, contentSlugKey(existing.Slug))
	}

	if err := c.inner.DeleteContent(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, keys...)
	return nil
}

// Aggregate counts

func (c *CachedStore) CountProjects(ctx context.Context) (int64, error) {
	return c.inner.CountProjects(ctx)
}

func (c *CachedStore) CountContent(ctx context.Context) (int64, error) {
	return c.inner.CountContent(ctx)
}
