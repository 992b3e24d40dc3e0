// Package antipassback rejects repeated same-direction passages inside a
// configurable window, catching tailgating and card pass-back at a door.
package antipassback

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"door-access-control-plane/backend/internal/antipassback/domain"
	"door-access-control-plane/backend/internal/antipassback/repository"
	"door-access-control-plane/backend/internal/cache"
	policydomain "door-access-control-plane/backend/internal/policy/domain"
)

const cacheKeyPrefix = "access:anti-passback:record:"

// Guard checks attempts against the latest passage record. The latest record
// per user+device is cached; the database is the source of truth. Storage
// failures fail open with a warning.
type Guard struct {
	repo     repository.Repository
	cache    cache.Cache
	cacheTTL time.Duration
	timeout  time.Duration
}

// NewGuard returns an anti-passback guard. cacheTTL bounds how long the latest
// record stays cached (typically 10m); timeout bounds each database round-trip.
func NewGuard(repo repository.Repository, c cache.Cache, cacheTTL, timeout time.Duration) *Guard {
	return &Guard{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		timeout:  timeout,
	}
}

// Check reports whether the attempt passes the anti-passback rule under cfg.
// An attempt passes when the feature is disabled, when the user has no prior
// record at the device, when the prior passage was in the other direction, or
// when at least the window has elapsed since the prior same-direction
// passage. It fails only for a same-direction repeat strictly inside the
// window; elapsed exactly equal to the window passes. Lookup failures pass
// (fail open, logged).
func (g *Guard) Check(ctx context.Context, cfg policydomain.AntiPassback, userID, deviceID, direction string, at time.Time) bool {
	if !cfg.Enabled {
		return true
	}

	last, err := g.latest(ctx, userID, deviceID)
	if err != nil {
		log.Printf("antipassback: record lookup failed for user %s device %s, failing open: %v", userID, deviceID, err)
		return true
	}
	if last == nil {
		return true
	}
	if last.Direction != direction {
		return true
	}

	window := time.Duration(cfg.WindowSeconds) * time.Second
	return at.Sub(last.RecordTime) >= window
}

// Record appends a passage record after a granted decision and refreshes the
// per-user+device cache. Persistence is best effort: a write failure is logged
// and the cache still reflects the passage so the in-window rule keeps working.
func (g *Guard) Record(ctx context.Context, userID, deviceID, areaID, direction, verifyMethod string, at time.Time) {
	rec := &domain.Record{
		ID:           uuid.NewString(),
		UserID:       userID,
		DeviceID:     deviceID,
		AreaID:       areaID,
		Direction:    direction,
		VerifyMethod: verifyMethod,
		RecordTime:   at,
	}

	if encoded, err := json.Marshal(rec); err == nil {
		g.cache.Set(ctx, g.key(userID, deviceID), string(encoded), g.cacheTTL)
	}

	dbCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.repo.Insert(dbCtx, rec); err != nil {
		log.Printf("antipassback: failed to persist record for user %s device %s: %v", userID, deviceID, err)
	}
}

func (g *Guard) latest(ctx context.Context, userID, deviceID string) (*domain.Record, error) {
	key := g.key(userID, deviceID)
	if raw, ok := g.cache.Get(ctx, key); ok {
		var rec domain.Record
		if err := json.Unmarshal([]byte(raw), &rec); err == nil {
			return &rec, nil
		}
		g.cache.Delete(ctx, key)
	}

	dbCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	rec, err := g.repo.GetLatest(dbCtx, userID, deviceID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		if encoded, err := json.Marshal(rec); err == nil {
			g.cache.Set(ctx, key, string(encoded), g.cacheTTL)
		}
	}
	return rec, nil
}

func (g *Guard) key(userID, deviceID string) string {
	return cacheKeyPrefix + userID + ":" + deviceID
}
