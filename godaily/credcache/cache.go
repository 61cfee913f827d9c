// Package credcache holds short-lived signing credentials between claims so
// the three-step exchange runs once per TTL window instead of once per
// request. It is an injected component, not process-global state, so tests
// can reset it and a distributed cache could replace it later.
package credcache

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const cacheSize = 2048

// Key identifies one account's credential slot.
type Key struct {
	AccountID string
	Server    string
}

// Entry is a cached signing credential. Entries are never persisted; a cache
// miss or expiry rebuilds them through the exchange flow.
type Entry struct {
	Cred          string
	SigningSecret string
	UserID        string
	ObtainedAt    time.Time
}

type Cache struct {
	entries *lru.Cache
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*Cache)

// WithClock substitutes the time source, used by TTL tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache whose entries expire after ttl. The TTL should sit
// under the upstream credential's true lifetime to leave a safety margin.
func New(ttl time.Duration, opts ...Option) *Cache {
	entries, _ := lru.New(cacheSize)
	c := &Cache{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry for key if present and fresh. Expired entries are
// removed on the way out.
func (c *Cache) Get(key Key) (Entry, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return Entry{}, false
	}

	entry := v.(Entry)
	if c.now().Sub(entry.ObtainedAt) >= c.ttl {
		c.entries.Remove(key)
		return Entry{}, false
	}
	return entry, true
}

// Put stores a freshly exchanged credential. Concurrent refreshes for the
// same key are last-write-wins; the exchange is idempotent so the rare
// duplicate costs only one extra round trip.
func (c *Cache) Put(key Key, entry Entry) {
	if entry.ObtainedAt.IsZero() {
		entry.ObtainedAt = c.now()
	}
	c.entries.Add(key, entry)
}

func (c *Cache) Invalidate(key Key) {
	c.entries.Remove(key)
}

func (c *Cache) InvalidateAll() {
	c.entries.Purge()
}

// Len reports the number of live (possibly expired) entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}
