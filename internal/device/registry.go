// Package device maps door device IDs to the areas they guard.
package device

import (
	"context"
	"time"

	"door-access-control-plane/backend/internal/cache"
	"door-access-control-plane/backend/internal/device/repository"
)

const cacheKeyPrefix = "access:device:area:"

// Registry resolves the area a device belongs to, caching lookups. Device to
// area assignments change rarely, so a long TTL is fine.
type Registry struct {
	repo    repository.Repository
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration
}

// NewRegistry returns a device registry caching lookups for ttl. timeout
// bounds each database round-trip.
func NewRegistry(repo repository.Repository, c cache.Cache, ttl, timeout time.Duration) *Registry {
	return &Registry{repo: repo, cache: c, ttl: ttl, timeout: timeout}
}

// AreaFor returns the area ID guarding deviceID, or "" when the device is not
// registered or disabled. It returns an error only for lookup failures.
func (r *Registry) AreaFor(ctx context.Context, deviceID string) (string, error) {
	key := cacheKeyPrefix + deviceID
	if v, ok := r.cache.Get(ctx, key); ok {
		return v, nil
	}

	dbCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	d, err := r.repo.GetByID(dbCtx, deviceID)
	if err != nil {
		return "", err
	}
	areaID := ""
	if d != nil && d.Enabled {
		areaID = d.AreaID
	}
	r.cache.Set(ctx, key, areaID, r.ttl)
	return areaID, nil
}

// Invalidate drops the cached area for deviceID after a reassignment.
func (r *Registry) Invalidate(ctx context.Context, deviceID string) {
	r.cache.Delete(ctx, cacheKeyPrefix+deviceID)
}
