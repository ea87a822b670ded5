package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	sharedDomain "github.com/felixgeelhaar/flowboard/internal/shared/domain"
	"github.com/felixgeelhaar/flowboard/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
	"github.com/felixgeelhaar/flowboard/pkg/observability"
)

// DefaultCatalogTTL bounds how stale a cached status list or matrix can get.
const DefaultCatalogTTL = 5 * time.Minute

// ListKey is the cache key of a tenant's status list.
func ListKey(tenantID sharedDomain.TenantID) string {
	return "cache:" + tenantID.String() + ":statuses:list"
}

// MatrixKey is the cache key of a tenant's transition matrix.
func MatrixKey(tenantID sharedDomain.TenantID) string {
	return "cache:" + tenantID.String() + ":statuses:transitions"
}

// StatusCatalog is the read-through cache in front of the status store.
// Cache errors are logged and never returned; reads fall back to the store.
type StatusCatalog struct {
	repo    domain.StatusRepository
	cache   cache.Cache
	ttl     time.Duration
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewStatusCatalog creates a catalog. A nil cache disables caching.
func NewStatusCatalog(repo domain.StatusRepository, c cache.Cache, ttl time.Duration, logger *slog.Logger, metrics observability.Metrics) *StatusCatalog {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &StatusCatalog{repo: repo, cache: c, ttl: ttl, logger: logger, metrics: metrics}
}

// Statuses returns the live statuses of a tenant ordered by position.
func (c *StatusCatalog) Statuses(ctx context.Context, tenantID sharedDomain.TenantID) ([]StatusDTO, error) {
	var cached []StatusDTO
	if c.load(ctx, tenantID, ListKey(tenantID), &cached) {
		return cached, nil
	}

	statuses, err := c.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	list := ToStatusDTOs(statuses)
	c.store(ctx, tenantID, ListKey(tenantID), list)
	return list, nil
}

// Matrix returns the transition matrix of a tenant.
func (c *StatusCatalog) Matrix(ctx context.Context, tenantID sharedDomain.TenantID) (domain.Matrix, error) {
	var cached domain.Matrix
	if c.load(ctx, tenantID, MatrixKey(tenantID), &cached) {
		return cached, nil
	}

	statuses, err := c.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	m := domain.BuildMatrix(statuses)
	c.store(ctx, tenantID, MatrixKey(tenantID), m)
	return m, nil
}

// Invalidate drops both cached views of a tenant. Call it after the write commits.
func (c *StatusCatalog) Invalidate(ctx context.Context, tenantID sharedDomain.TenantID) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, ListKey(tenantID), MatrixKey(tenantID)); err != nil {
		c.metrics.Counter(observability.MetricCacheError, 1, observability.T("op", "delete"))
		c.logger.WarnContext(ctx, "status cache invalidation failed",
			"tenant_id", tenantID.String(),
			"error", err,
		)
	}
}

func (c *StatusCatalog) load(ctx context.Context, tenantID sharedDomain.TenantID, key string, dst any) bool {
	if c.cache == nil {
		return false
	}
	raw, err := c.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		c.metrics.Counter(observability.MetricCacheMiss, 1)
		return false
	}
	if err != nil {
		c.metrics.Counter(observability.MetricCacheError, 1, observability.T("op", "get"))
		c.logger.WarnContext(ctx, "status cache read failed",
			"tenant_id", tenantID.String(),
			"key", key,
			"error", err,
		)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.metrics.Counter(observability.MetricCacheError, 1, observability.T("op", "decode"))
		c.logger.WarnContext(ctx, "status cache entry is corrupt",
			"tenant_id", tenantID.String(),
			"key", key,
			"error", err,
		)
		return false
	}
	c.metrics.Counter(observability.MetricCacheHit, 1)
	return true
}

func (c *StatusCatalog) store(ctx context.Context, tenantID sharedDomain.TenantID, key string, value any) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err == nil {
		err = c.cache.Set(ctx, key, raw, c.ttl)
	}
	if err != nil {
		c.metrics.Counter(observability.MetricCacheError, 1, observability.T("op", "set"))
		c.logger.WarnContext(ctx, "status cache write failed",
			"tenant_id", tenantID.String(),
			"key", key,
			"error", err,
		)
	}
}
