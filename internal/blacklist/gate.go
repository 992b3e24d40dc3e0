// Package blacklist decides whether a user is categorically ineligible for
// access: disabled, locked, or past their account expiry.
package blacklist

import (
	"context"
	"log"
	"time"

	"door-access-control-plane/backend/internal/cache"
)

// AccountState is a user's directory status.
type AccountState string

const (
	AccountActive   AccountState = "ACTIVE"
	AccountDisabled AccountState = "DISABLED"
	AccountLocked   AccountState = "LOCKED"
)

// UserStatus is what the user directory reports for one user.
type UserStatus struct {
	State AccountState
	// ExpiresAt is the account expiry; nil means no expiry.
	ExpiresAt *time.Time
}

// UserDirectory is the minimal user directory lookup needed by the gate.
// Lookups may be remote and slow; the gate bounds and caches them.
type UserDirectory interface {
	GetStatus(ctx context.Context, userID string) (*UserStatus, error)
}

const cacheKeyPrefix = "access:blacklist:user:"

// Gate answers eligibility for users with a per-user TTL cache over the
// directory. Directory failure fails open: access control must not lock a
// building during a directory outage. The warning log is the operator signal.
type Gate struct {
	directory UserDirectory
	cache     cache.Cache
	ttl       time.Duration
	timeout   time.Duration
	nowF      func() time.Time
}

// NewGate returns a blacklist gate caching directory lookups for ttl.
// timeout bounds each directory round-trip.
func NewGate(directory UserDirectory, c cache.Cache, ttl, timeout time.Duration) *Gate {
	return &Gate{
		directory: directory,
		cache:     c,
		ttl:       ttl,
		timeout:   timeout,
		nowF:      time.Now().UTC,
	}
}

// IsEligible reports whether userID may attempt access at all. False when the
// directory reports the account disabled, locked, or expired. True on
// directory failure (fail open, logged).
func (g *Gate) IsEligible(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}

	key := cacheKeyPrefix + userID
	if v, ok := g.cache.Get(ctx, key); ok {
		return v == "1"
	}

	dirCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	status, err := g.directory.GetStatus(dirCtx, userID)
	if err != nil {
		log.Printf("blacklist: directory lookup failed for user %s, failing open: %v", userID, err)
		return true
	}
	if status == nil {
		log.Printf("blacklist: user %s unknown to directory, failing open", userID)
		return true
	}

	eligible := g.eligible(status)
	v := "0"
	if eligible {
		v = "1"
	}
	g.cache.Set(ctx, key, v, g.ttl)
	return eligible
}

func (g *Gate) eligible(status *UserStatus) bool {
	if status.State != AccountActive {
		return false
	}
	if status.ExpiresAt != nil && status.ExpiresAt.Before(g.nowF()) {
		return false
	}
	return true
}

// Invalidate drops the cached eligibility for userID, e.g. after an
// administrative lock takes effect.
func (g *Gate) Invalidate(ctx context.Context, userID string) {
	g.cache.Delete(ctx, cacheKeyPrefix+userID)
}
