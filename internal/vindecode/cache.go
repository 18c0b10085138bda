package vindecode

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// Stats is a point-in-time view of a Cache.
type Stats struct {
	Entries int           `json:"entries"`
	Active  int           `json:"active"`
	Expired int           `json:"expired"`
	Hits    uint64        `json:"hits"`
	Misses  uint64        `json:"misses"`
	MaxSize int           `json:"maxSize"`
	TTL     time.Duration `json:"ttlNanos"`
}

// Cache stores decoded vehicles by VIN.
type Cache interface {
	Get(vin string) (Vehicle, bool)
	Add(vin string, v Vehicle)
	Len() int
	Stats() Stats
	Purge()
}

type cacheEntry struct {
	vehicle   Vehicle
	expiresAt time.Time
}

// LRUCache bounds entries by count and evicts least recently used first.
// Entries older than the TTL are treated as misses and dropped on read.
type LRUCache struct {
	mu      sync.Mutex
	lru     *lru.Cache
	expiry  map[string]time.Time // mirrors lru keys for Stats
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	hits    uint64
	misses  uint64
}

// CacheOption customizes an LRUCache.
type CacheOption func(*LRUCache)

// WithClock injects the time source used for expiry.
func WithClock(now func() time.Time) CacheOption {
	return func(c *LRUCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewLRUCache returns a cache holding at most maxSize vehicles for ttl each.
// maxSize <= 0 defaults to 1000 and ttl <= 0 to seven days.
func NewLRUCache(maxSize int, ttl time.Duration, opts ...CacheOption) *LRUCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	c := &LRUCache{
		lru:     lru.New(maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		expiry:  make(map[string]time.Time, maxSize),
		now:     time.Now,
	}
	c.lru.OnEvicted = func(k lru.Key, _ interface{}) {
		delete(c.expiry, k.(string))
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *LRUCache) Get(vin string) (Vehicle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(vin)
	if !ok {
		c.misses++
		return Vehicle{}, false
	}
	e := v.(cacheEntry)
	if !c.now().Before(e.expiresAt) {
		c.lru.Remove(vin)
		c.misses++
		return Vehicle{}, false
	}
	c.hits++
	return e.vehicle, true
}

func (c *LRUCache) Add(vin string, v Vehicle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(c.ttl)
	c.lru.Add(vin, cacheEntry{vehicle: v, expiresAt: exp})
	c.expiry[vin] = exp
}

func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats counts active and expired entries without evicting anything.
func (c *LRUCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := Stats{
		Entries: c.lru.Len(),
		Hits:    c.hits,
		Misses:  c.misses,
		MaxSize: c.maxSize,
		TTL:     c.ttl,
	}
	for _, exp := range c.expiry {
		if now.Before(exp) {
			s.Active++
		} else {
			s.Expired++
		}
	}
	return s
}

func (c *LRUCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
	c.hits, c.misses = 0, 0
}
