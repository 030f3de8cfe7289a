/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package ttlcache is the small per-device TTL cache used for idempotent
// lookups such as clip-title-to-id resolution (§4.5, §9). Entries carry an
// expiry and the cache sweeps expired entries lazily on write, every 100th
// write, rather than running a background goroutine. GetSet provides
// single-flight semantics: concurrent callers racing on the same missing
// key share one computation.
package ttlcache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const sweepEvery = 100

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a generic, in-memory, per-device TTL cache.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	items   map[K]item[V]
	writes  uint64
	now     func() time.Time
	group   singleflight.Group
}

// New constructs an empty cache. now defaults to time.Now when nil.
func New[K comparable, V any](now func() time.Time) *Cache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[K, V]{
		items: make(map[K]item[V]),
		now:   now,
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok || c.now().After(it.expiresAt) {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set stores value for key with the given TTL and triggers a sweep every
// 100th write.
func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.writes++
	if c.writes%sweepEvery == 0 {
		c.sweepLocked()
	}
}

func (c *Cache[K, V]) sweepLocked() {
	now := c.now()
	for k, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, k)
		}
	}
}

// GetSet returns the cached value for key, computing and storing it via
// compute on a miss. Concurrent callers for the same missing key share a
// single computation (golang.org/x/sync/singleflight).
func (c *Cache[K, V]) GetSet(key K, ttl time.Duration, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	// singleflight.Group keys on string; comparable K is formatted for the
	// dedupe key only, the cache itself stays keyed on K directly.
	skey := anyToString(key)
	v, err, _ := c.group.Do(skey, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		value, err := compute()
		if err != nil {
			return value, err
		}
		c.Set(key, value, ttl)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

func anyToString(key any) string {
	type stringer interface{ String() string }
	if s, ok := key.(stringer); ok {
		return s.String()
	}
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", key)
}
