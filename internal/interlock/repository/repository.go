package repository

import (
	"context"
	"time"
)

// Acquisition mirrors one interlock lock grab for operator visibility. The
// cache holds the authoritative lock; these rows are audit only.
type Acquisition struct {
	ID         string
	AreaID     string
	GroupID    string
	DeviceID   string
	AcquiredAt time.Time
	ReleasedAt *time.Time
}

// Repository defines persistence for the interlock audit trail.
type Repository interface {
	// Insert records a lock acquisition.
	Insert(ctx context.Context, a *Acquisition) error

	// MarkReleased stamps the release time on the newest open acquisition row
	// for the device in the group.
	MarkReleased(ctx context.Context, areaID, groupID, deviceID string, at time.Time) error

	// DeleteStale removes unreleased rows acquired before cutoff. Rows go stale
	// when a process dies between acquire and release; the cache TTL already
	// freed the lock itself.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}
