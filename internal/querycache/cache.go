// Package querycache provides a keyed cache of query results with per-entry
// time-to-live, used to avoid redundant store round-trips for repeated reads.
package querycache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hourstack-io/hourstack/internal/docstore"
)

// DefaultTTL is applied when a caller passes a non-positive TTL.
const DefaultTTL = 5 * time.Minute

type entry struct {
	records []docstore.Record
	stamp   time.Time
	ttl     time.Duration
}

// Cache is an explicit cache instance with an injected clock. There is no
// request coalescing: concurrent misses for the same key each hit the store.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	now        func() time.Time
	defaultTTL time.Duration
}

// New returns a cache using the wall clock.
func New(defaultTTL time.Duration) *Cache {
	return NewWithClock(defaultTTL, time.Now)
}

// NewWithClock returns a cache with a caller-supplied clock.
func NewWithClock(defaultTTL time.Duration, now func() time.Time) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]entry),
		now:        now,
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached records for key. An entry is valid iff
// now - stamp < ttl; an entry at or past its TTL behaves as a miss.
// The result is a copy: callers may mutate it without corrupting the
// cached entry for later hits.
func (c *Cache) Get(key string) ([]docstore.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.stamp) >= e.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return cloneRecords(e.records), true
}

// Put overwrites any existing entry for key, stamping the current time.
// The records are copied on the way in, so the caller keeping (and
// mutating) its slice cannot reach the cached entry.
func (c *Cache) Put(key string, records []docstore.Record, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{records: cloneRecords(records), stamp: c.now(), ttl: ttl}
}

func cloneRecords(records []docstore.Record) []docstore.Record {
	out := make([]docstore.Record, len(records))
	for i, r := range records {
		rec := make(docstore.Record, len(r))
		for k, v := range r {
			rec[k] = cloneValue(v)
		}
		out[i] = rec
	}
	return out
}

// cloneValue deep-copies the JSON-shaped values documents are made of.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return t
	}
}

// Clear removes every entry whose key starts with prefix. An empty prefix
// removes all entries.
func (c *Cache) Clear(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prefix == "" {
		c.entries = make(map[string]entry)
		return
	}
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// FetchWithCache answers from the cache when possible; on a miss it queries
// the store, caches the result under key (or the query's deterministic key
// when key is empty) and returns it. A store failure propagates unchanged
// and writes nothing.
func (c *Cache) FetchWithCache(ctx context.Context, store docstore.Store, q *docstore.Query, key string, ttl time.Duration) ([]docstore.Record, error) {
	if key == "" {
		key = q.CacheKey()
	}
	if records, ok := c.Get(key); ok {
		return records, nil
	}
	records, err := store.GetDocs(ctx, q)
	if err != nil {
		return nil, err
	}
	c.Put(key, records, ttl)
	return records, nil
}
