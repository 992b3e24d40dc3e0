package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Cache implementation. Entries expire lazily on read
// and are also reaped by a periodic sweep when one is started with StartSweep.
type Memory struct {
	mu   sync.Mutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now().UTC)
}

// NewMemoryWithClock returns an empty in-memory cache reading time from nowF.
// Used by tests that need to step time past entry TTLs.
func NewMemoryWithClock(nowF func() time.Time) *Memory {
	return &Memory{
		m:    make(map[string]entry),
		nowF: nowF,
	}
}

// Get returns the live value for key, deleting it if expired.
func (c *Memory) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(c.nowF()) {
		delete(c.m, key)
		return "", false
	}
	return e.value, true
}

// Set stores value for key until now+ttl.
func (c *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = entry{value: value, expiresAt: c.nowF().Add(ttl)}
}

// SetNX stores value for key until now+ttl only if no live entry exists for key.
// The existence check and the write happen under one lock, so concurrent SetNX
// calls for the same key admit exactly one writer.
func (c *Memory) SetNX(ctx context.Context, key, value string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowF()
	if e, ok := c.m[key]; ok && e.expiresAt.After(now) {
		return false
	}
	c.m[key] = entry{value: value, expiresAt: now.Add(ttl)}
	return true
}

// CompareDelete removes key only if its live value equals value.
func (c *Memory) CompareDelete(ctx context.Context, key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return false
	}
	if !e.expiresAt.After(c.nowF()) {
		delete(c.m, key)
		return false
	}
	if e.value != value {
		return false
	}
	delete(c.m, key)
	return true
}

// Delete removes key unconditionally.
func (c *Memory) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}

// StartSweep reaps expired entries every interval until ctx is cancelled.
// Lazy expiry keeps reads correct without it; the sweep only bounds memory for
// keys that are written once and never read again.
func (c *Memory) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				c.sweep()
			}
		}
	}()
}

func (c *Memory) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowF()
	for k, e := range c.m {
		if !e.expiresAt.After(now) {
			delete(c.m, k)
		}
	}
}
