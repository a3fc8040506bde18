package service

import (
	"container/list"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/arvindnair/hnswdb/pkg/hnsw"
)

type cacheKey string

type cacheEntry struct {
	key       cacheKey
	results   []hnsw.SearchResult
	expiresAt time.Time
}

// SearchCache is an LRU cache of searchKNN results. Unlike a typical
// key-scoped cache it is invalidated wholesale on any index mutation,
// because an insert, remove, or update can change the result of any query,
// not just ones that touched the same id.
type SearchCache struct {
	capacity int
	ttl      time.Duration

	mu    sync.Mutex
	items map[cacheKey]*list.Element
	lru   *list.List

	hits, misses int64
}

// NewSearchCache creates a cache holding up to capacity entries, each
// valid for ttl (0 disables expiry). capacity <= 0 disables caching.
func NewSearchCache(capacity int, ttl time.Duration) *SearchCache {
	return &SearchCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[cacheKey]*list.Element, capacity),
		lru:      list.New(),
	}
}

func searchCacheKey(query []float32, k int, tau float32, ef, beamSize int) cacheKey {
	h := sha256.New()
	for _, v := range query {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h.Write(buf[:])
	}
	var ints [16]byte
	binary.LittleEndian.PutUint32(ints[0:4], uint32(k))
	binary.LittleEndian.PutUint32(ints[4:8], math.Float32bits(tau))
	binary.LittleEndian.PutUint32(ints[8:12], uint32(ef))
	binary.LittleEndian.PutUint32(ints[12:16], uint32(beamSize))
	h.Write(ints[:])
	return cacheKey(fmt.Sprintf("search:%x", h.Sum(nil)))
}

// Get returns a cached result set for key, if present and unexpired.
func (c *SearchCache) Get(key cacheKey) ([]hnsw.SearchResult, bool) {
	if c == nil || c.capacity <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.ttl > 0 && time.Now().After(entry.expiresAt) {
		c.removeLocked(elem)
		c.misses++
		return nil, false
	}
	c.lru.MoveToFront(elem)
	c.hits++
	return entry.results, true
}

// Put stores results under key, evicting the least recently used entry if
// the cache is at capacity.
func (c *SearchCache) Put(key cacheKey, results []hnsw.SearchResult) {
	if c == nil || c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.results = results
		if c.ttl > 0 {
			entry.expiresAt = time.Now().Add(c.ttl)
		}
		c.lru.MoveToFront(elem)
		return
	}

	entry := &cacheEntry{key: key, results: results}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}
	elem := c.lru.PushFront(entry)
	c.items[key] = elem

	if c.lru.Len() > c.capacity {
		if back := c.lru.Back(); back != nil {
			c.removeLocked(back)
		}
	}
}

func (c *SearchCache) removeLocked(elem *list.Element) {
	c.lru.Remove(elem)
	entry := elem.Value.(*cacheEntry)
	delete(c.items, entry.key)
}

// Clear evicts every cached result. Called after any mutation.
func (c *SearchCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[cacheKey]*list.Element, c.capacity)
	c.lru.Init()
}

// Size returns the current number of cached entries.
func (c *SearchCache) Size() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns cumulative hit/miss counts.
func (c *SearchCache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
