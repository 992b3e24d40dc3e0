// Package policy resolves per-area access policy configuration with a TTL cache
// in front of durable storage.
package policy

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"door-access-control-plane/backend/internal/cache"
	"door-access-control-plane/backend/internal/policy/domain"
	"door-access-control-plane/backend/internal/policy/repository"
)

// ErrConfigUnavailable reports that durable storage could not be reached and a
// default config was returned instead. Callers treat it as a degraded-config
// signal, not a hard failure: optional features behave as disabled while
// anti-passback keeps its secure default.
var ErrConfigUnavailable = errors.New("area config storage unavailable")

const cacheKeyPrefix = "access:area:config:"

// Store resolves AreaConfig by area ID. Resolved configs are cached with a TTL
// (typically 1h); Invalidate drops an entry when administration updates a config.
type Store struct {
	repo     repository.Repository
	cache    cache.Cache
	ttl      time.Duration
	defaults domain.Defaults
	timeout  time.Duration
}

// NewStore returns a config store caching repo lookups for ttl. timeout bounds
// each storage round-trip.
func NewStore(repo repository.Repository, c cache.Cache, ttl, timeout time.Duration, defaults domain.Defaults) *Store {
	return &Store{repo: repo, cache: c, ttl: ttl, defaults: defaults, timeout: timeout}
}

// Resolve returns the policy configuration for areaID. The returned config is
// never nil. When storage is unreachable it returns the default config together
// with ErrConfigUnavailable; when the stored blob is malformed it returns the
// default config with no error (logged), matching "no explicit configuration".
func (s *Store) Resolve(ctx context.Context, areaID string) (*domain.AreaConfig, error) {
	if areaID == "" {
		return domain.DefaultConfig(areaID, s.defaults), nil
	}

	key := cacheKeyPrefix + areaID
	if raw, ok := s.cache.Get(ctx, key); ok {
		var cfg domain.AreaConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err == nil {
			return &cfg, nil
		}
		s.cache.Delete(ctx, key)
	}

	repoCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	blob, err := s.repo.GetExtConfig(repoCtx, areaID)
	if err != nil {
		log.Printf("policy: area config lookup failed for %s: %v", areaID, err)
		return domain.DefaultConfig(areaID, s.defaults), ErrConfigUnavailable
	}

	cfg, err := domain.ParseExtConfig(areaID, blob, s.defaults)
	if err != nil {
		log.Printf("policy: area %s has malformed ext_config, using defaults: %v", areaID, err)
	}

	if encoded, err := json.Marshal(cfg); err == nil {
		s.cache.Set(ctx, key, string(encoded), s.ttl)
	}
	return cfg, nil
}

// Invalidate drops the cached config for areaID. Called on explicit config
// updates so the next Resolve reads fresh state.
func (s *Store) Invalidate(ctx context.Context, areaID string) {
	s.cache.Delete(ctx, cacheKeyPrefix+areaID)
}
