package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/deskmate-core-poc/server/internal/agent/contract"
)

const (
	// DefaultCapacity bounds the number of cached answers when unset.
	DefaultCapacity = 100
	// DefaultTTL is the entry lifetime when unset.
	DefaultTTL = 6 * time.Hour
)

// Config holds the cache bounds.
type Config struct {
	Capacity int
	TTL      time.Duration
}

type entry struct {
	key        string
	value      *contract.Answer
	insertedAt time.Time
}

// Cache is a bounded answer store with TTL expiry and LRU eviction. Expiry is
// lazy: an entry is only checked and dropped when it is read, never by a
// background sweep, so Size may transiently count expired-but-unread entries.
// Cached answers are shared read-only by all later hits.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front = most recently used
	items    map[string]*list.Element
	stats    Stats

	now func() time.Time // test seam
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Expirations uint64 `json:"expirations"`
	Evictions   uint64 `json:"evictions"`
	Size        int    `json:"size"`
}

// New creates a Cache, falling back to the default bounds for unset or
// invalid values.
func New(cfg Config) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Cache{
		capacity: cfg.Capacity,
		ttl:      cfg.TTL,
		order:    list.New(),
		items:    make(map[string]*list.Element, cfg.Capacity),
		now:      time.Now,
	}
}

// Get returns the cached answer for key. An entry past its TTL is removed and
// reported absent; a live entry is bumped to most-recently-used.
func (c *Cache) Get(key string) (*contract.Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	ent := el.Value.(*entry)
	if c.now().Sub(ent.insertedAt) > c.ttl {
		c.removeLocked(el)
		c.stats.Expirations++
		c.stats.Misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return ent.value, true
}

// Set stores value under key. An existing entry for the key is removed first
// so re-insertion resets both recency and timestamp; at capacity the single
// least-recently-used entry is evicted before the insert.
func (c *Cache) Set(key string, value *contract.Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.removeLocked(oldest)
			c.stats.Evictions++
		}
	}
	c.items[key] = c.order.PushFront(&entry{key: key, value: value, insertedAt: c.now()})
}

// Size reports the number of stored entries, including any expired entries
// that have not been read since expiring.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.order.Len()
	return s
}

// removeLocked unlinks el from both the order list and the key index.
// Callers must hold c.mu.
func (c *Cache) removeLocked(el *list.Element) {
	ent := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.items, ent.key)
}
