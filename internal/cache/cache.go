// Package cache memoizes the ingestion stage. Parsed-and-summarized
// datasets are keyed by the digest of the uploaded bytes, so re-uploading
// the same file never re-parses it and a changed file can never collide
// with a stale entry.
package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Uric01/machine-learning/internal/models"
	"github.com/Uric01/machine-learning/internal/redis"
)

// Entry is a parsed-and-validated dataset: its metadata plus the
// per-customer summary table.
type Entry struct {
	Dataset   models.Dataset           `json:"dataset"`
	Summaries []models.CustomerSummary `json:"summaries"`
}

// Cache is a bounded LRU of ingestion results with an optional shared
// redis tier. The zero value is not usable; call New.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	max     int

	shared *redis.Client
	ttl    time.Duration
}

type cacheItem struct {
	digest string
	entry  *Entry
}

// New builds a cache holding at most maxEntries datasets locally. shared
// may be nil; when set, entries are mirrored to redis with the given TTL.
func New(maxEntries int, shared *redis.Client, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache{
		entries: make(map[string]*list.Element, maxEntries),
		order:   list.New(),
		max:     maxEntries,
		shared:  shared,
		ttl:     ttl,
	}
}

// Get returns the cached entry for the digest, consulting the shared tier
// on a local miss.
func (c *Cache) Get(ctx context.Context, digest string) (*Entry, bool) {
	c.mu.Lock()
	if el, ok := c.entries[digest]; ok {
		c.order.MoveToFront(el)
		entry := el.Value.(*cacheItem).entry
		c.mu.Unlock()
		return entry, true
	}
	c.mu.Unlock()

	if c.shared == nil {
		return nil, false
	}
	raw, err := c.shared.Get(ctx, key(digest))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false
	}
	c.store(digest, &entry)
	return &entry, true
}

// Set records an ingestion result under its content digest.
func (c *Cache) Set(ctx context.Context, digest string, entry *Entry) error {
	c.store(digest, entry)
	if c.shared == nil {
		return nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.shared.Set(ctx, key(digest), raw, c.ttl)
}

func (c *Cache) store(digest string, entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[digest]; ok {
		el.Value.(*cacheItem).entry = entry
		c.order.MoveToFront(el)
		return
	}
	c.entries[digest] = c.order.PushFront(&cacheItem{digest: digest, entry: entry})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheItem).digest)
	}
}

// Len reports the number of locally cached datasets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// ErrNotCached is returned by callers when a digest is known but its parsed
// table has been evicted; the client must re-upload the file.
var ErrNotCached = errors.New("dataset not cached")

func key(digest string) string {
	return "clv:dataset:" + digest
}
