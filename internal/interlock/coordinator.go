// Package interlock enforces mutual exclusion between door devices in the same
// interlock group: while one door in the group is open, the others stay shut.
package interlock

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"door-access-control-plane/backend/internal/cache"
	"door-access-control-plane/backend/internal/interlock/repository"
	policydomain "door-access-control-plane/backend/internal/policy/domain"
)

const cacheKeyPrefix = "access:interlock:group:"

// Coordinator arbitrates interlock groups with one lock key per group. The key
// holds the ID of the device currently allowed through; an atomic set-if-absent
// admits exactly one of any number of concurrent acquirers. Locks carry a TTL
// so a crashed holder cannot wedge the group.
type Coordinator struct {
	cache   cache.Cache
	repo    repository.Repository
	timeout time.Duration
	nowF    func() time.Time
}

// NewCoordinator returns an interlock coordinator. repo may be nil to disable
// the audit mirror. timeout bounds each audit database round-trip.
func NewCoordinator(c cache.Cache, repo repository.Repository, timeout time.Duration) *Coordinator {
	return &Coordinator{
		cache:   c,
		repo:    repo,
		timeout: timeout,
		nowF:    time.Now().UTC,
	}
}

// TryAcquire attempts to take the interlock lock for the device's group under
// cfg. It returns true when the area has interlock disabled, when the device
// belongs to no group, when the lock is free, or when the device already holds
// it (re-acquire renews the TTL). It returns false while another device in the
// group holds the lock.
func (co *Coordinator) TryAcquire(ctx context.Context, cfg *policydomain.AreaConfig, deviceID string) bool {
	group, ok := cfg.GroupFor(deviceID)
	if !ok {
		return true
	}

	ttl := time.Duration(cfg.Interlock.TimeoutSeconds) * time.Second
	key := co.key(cfg.AreaID, group.GroupID)
	if co.cache.SetNX(ctx, key, deviceID, ttl) {
		co.audit(cfg.AreaID, group.GroupID, deviceID)
		return true
	}

	holder, ok := co.cache.Get(ctx, key)
	if ok && holder == deviceID {
		// Same device retrying, e.g. a second person at an already-open door.
		co.cache.Set(ctx, key, deviceID, ttl)
		return true
	}
	return false
}

// Release frees the group lock held by deviceID. It only removes the lock when
// the device still holds it, so a late release cannot evict a newer holder.
func (co *Coordinator) Release(ctx context.Context, cfg *policydomain.AreaConfig, deviceID string) {
	group, ok := cfg.GroupFor(deviceID)
	if !ok {
		return
	}
	if co.cache.CompareDelete(ctx, co.key(cfg.AreaID, group.GroupID), deviceID) {
		co.markReleased(cfg.AreaID, group.GroupID, deviceID)
	}
}

// ReconcileStale drops audit rows for acquisitions older than maxAge that were
// never marked released. Intended to run periodically from the server process.
func (co *Coordinator) ReconcileStale(ctx context.Context, maxAge time.Duration) {
	if co.repo == nil {
		return
	}
	dbCtx, cancel := context.WithTimeout(ctx, co.timeout)
	defer cancel()
	n, err := co.repo.DeleteStale(dbCtx, co.nowF().Add(-maxAge))
	if err != nil {
		log.Printf("interlock: stale audit cleanup failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("interlock: removed %d stale audit rows", n)
	}
}

func (co *Coordinator) key(areaID, groupID string) string {
	return cacheKeyPrefix + areaID + ":" + groupID
}

// audit mirrors an acquisition to the database, best effort.
func (co *Coordinator) audit(areaID, groupID, deviceID string) {
	if co.repo == nil {
		return
	}
	dbCtx, cancel := context.WithTimeout(context.Background(), co.timeout)
	defer cancel()
	err := co.repo.Insert(dbCtx, &repository.Acquisition{
		ID:         uuid.NewString(),
		AreaID:     areaID,
		GroupID:    groupID,
		DeviceID:   deviceID,
		AcquiredAt: co.nowF(),
	})
	if err != nil {
		log.Printf("interlock: audit insert failed for group %s device %s: %v", groupID, deviceID, err)
	}
}

func (co *Coordinator) markReleased(areaID, groupID, deviceID string) {
	if co.repo == nil {
		return
	}
	dbCtx, cancel := context.WithTimeout(context.Background(), co.timeout)
	defer cancel()
	if err := co.repo.MarkReleased(dbCtx, areaID, groupID, deviceID, co.nowF()); err != nil {
		log.Printf("interlock: audit release update failed for group %s device %s: %v", groupID, deviceID, err)
	}
}
