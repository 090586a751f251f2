// Package cache provides the in-memory response cache used by the gateway.
//
// Entries carry their own expiry. Expired entries are removed lazily on Get
// and by a background sweep, so keys that are never read again still leave
// the map. There is no size bound; entries only leave by expiry, overwrite,
// Delete or Clear.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultTTL applies to Set when no WithDefaultTTL option is given.
	DefaultTTL = time.Hour
	// DefaultSweepInterval is how often expired entries are swept.
	DefaultSweepInterval = 5 * time.Minute
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// EvictFunc is called after an entry is removed because it expired.
type EvictFunc[V any] func(key string, value V)

// Cache is a TTL key/value store safe for concurrent use.
type Cache[V any] struct {
	mu      sync.RWMutex
	items   map[string]entry[V]
	ttl     time.Duration
	sweep   time.Duration
	now     func() time.Time
	onEvict EvictFunc[V]

	evictions atomic.Int64

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithDefaultTTL sets the TTL used by Set.
func WithDefaultTTL[V any](ttl time.Duration) Option[V] {
	return func(c *Cache[V]) { c.ttl = ttl }
}

// WithSweepInterval sets the background sweep period. Zero or negative
// disables the sweep and leaves expiry to Get.
func WithSweepInterval[V any](d time.Duration) Option[V] {
	return func(c *Cache[V]) { c.sweep = d }
}

// WithClock replaces time.Now.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) { c.now = now }
}

// WithEvictCallback registers fn for expiry evictions.
func WithEvictCallback[V any](fn EvictFunc[V]) Option[V] {
	return func(c *Cache[V]) { c.onEvict = fn }
}

// New creates a Cache and starts its sweep goroutine. Call Close to stop it.
func New[V any](opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		items: make(map[string]entry[V]),
		ttl:   DefaultTTL,
		sweep: DefaultSweepInterval,
		now:   time.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sweep > 0 {
		go c.sweepLoop()
	} else {
		close(c.done)
	}
	return c
}

// Get returns the value for key. An expired entry is evicted and reported absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if !e.expired(c.now()) {
		return e.value, true
	}

	c.mu.Lock()
	// a concurrent Set may have replaced the entry
	cur, still := c.items[key]
	evicted := still && cur.expired(c.now())
	if evicted {
		delete(c.items, key)
	}
	c.mu.Unlock()

	if evicted {
		c.evicted(key, cur.value)
	}
	return zero, false
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key, replacing any previous entry.
// A non-positive ttl falls back to the default TTL.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	_, ok := c.items[key]
	delete(c.items, key)
	c.mu.Unlock()
	return ok
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Evictions returns the number of entries removed on expiry.
func (c *Cache[V]) Evictions() int64 {
	return c.evictions.Load()
}

// Clear removes entries and returns how many were removed. If expiredOnly is
// true, only expired entries are removed.
func (c *Cache[V]) Clear(expiredOnly bool) int {
	if expiredOnly {
		return c.DeleteExpired()
	}
	c.mu.Lock()
	n := len(c.items)
	c.items = make(map[string]entry[V])
	c.mu.Unlock()
	return n
}

// DeleteExpired runs one sweep pass and returns the number of evictions.
func (c *Cache[V]) DeleteExpired() int {
	now := c.now()
	type kv struct {
		key   string
		value V
	}
	var removed []kv

	c.mu.Lock()
	for k, e := range c.items {
		if e.expired(now) {
			removed = append(removed, kv{k, e.value})
			delete(c.items, k)
		}
	}
	c.mu.Unlock()

	for _, r := range removed {
		c.evicted(r.key, r.value)
	}
	return len(removed)
}

// Close stops the sweep goroutine. It is safe to call more than once.
func (c *Cache[V]) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}

func (c *Cache[V]) evicted(key string, value V) {
	c.evictions.Add(1)
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}

func (c *Cache[V]) sweepLoop() {
	defer close(c.done)
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.DeleteExpired()
		}
	}
}
