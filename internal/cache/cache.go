// Package cache provides the TTL cache abstraction the verification engine is
// built on. Gate state that must expire on its own (anti-passback records,
// interlock locks, multi-person sessions, resolved area configs) lives behind
// this interface rather than in bare shared maps, so ownership and invalidation
// stay explicit.
package cache

import (
	"context"
	"time"
)

// Cache is a string-keyed TTL cache. Values are opaque strings; callers encode
// structured entries as JSON.
//
// SetNX is the single-key atomic primitive: it stores value only when no live
// entry exists for key, and reports whether the write happened. Interlock
// acquisition and multi-person session creation rely on this being atomic with
// respect to concurrent SetNX and Get calls for the same key.
type Cache interface {
	// Get returns the live value for key. Returns ok false if missing or expired.
	Get(ctx context.Context, key string) (value string, ok bool)
	// Set stores value for key until now+ttl, replacing any existing entry.
	Set(ctx context.Context, key, value string, ttl time.Duration)
	// SetNX stores value for key until now+ttl only if no live entry exists.
	// Returns true when the value was stored.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) bool
	// CompareDelete removes key only if its live value equals value. Returns
	// true when the entry was removed. Used to release locks without clobbering
	// a successor holder.
	CompareDelete(ctx context.Context, key, value string) bool
	// Delete removes key unconditionally.
	Delete(ctx context.Context, key string)
}
