package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var _ port.ChunkIndex = (*CachedIndex)(nil)

// SearchCache is an LRU cache of search results with a TTL. Entries written
// before the last Invalidate are never returned.
type SearchCache struct {
	mu       sync.RWMutex
	entries  map[string]*cacheEntry
	order    []string
	maxSize  int
	ttl      time.Duration
	indexGen uint64
}

type cacheEntry struct {
	results   []domain.ScoredChunk
	timestamp time.Time
	indexGen  uint64
}

func NewSearchCache(maxSize int, ttl time.Duration) *SearchCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SearchCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func cacheKey(query string, k int, filter domain.SearchFilter) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(k)))
	h.Write([]byte{0})
	h.Write([]byte(filter.Category))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (c *SearchCache) Get(query string, k int, filter domain.SearchFilter) ([]domain.ScoredChunk, bool) {
	key := cacheKey(query, k, filter)

	c.mu.RLock()
	_, exists := c.entries[key]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A Put may have replaced the entry since the read lock was released.
	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if time.Since(entry.timestamp) > c.ttl || entry.indexGen != c.indexGen {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}
	c.moveToEnd(key)
	return entry.results, true
}

func (c *SearchCache) Put(query string, k int, filter domain.SearchFilter, results []domain.ScoredChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, k, filter)
	entry := &cacheEntry{
		results:   results,
		timestamp: time.Now(),
		indexGen:  c.indexGen,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = entry
	c.order = append(c.order, key)
}

// Invalidate drops every entry.
func (c *SearchCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
	c.indexGen++
}

func (c *SearchCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *SearchCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *SearchCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *SearchCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachedIndex serves repeated searches from a SearchCache. Committing a
// staged generation invalidates the cache.
type CachedIndex struct {
	port.ChunkIndex
	cache *SearchCache
}

func NewCachedIndex(index port.ChunkIndex, cache *SearchCache) *CachedIndex {
	return &CachedIndex{ChunkIndex: index, cache: cache}
}

func (i *CachedIndex) Stage(chunks []domain.Chunk) (port.StagedIndex, error) {
	staged, err := i.ChunkIndex.Stage(chunks)
	if err != nil {
		return nil, err
	}
	return &invalidatingStage{StagedIndex: staged, cache: i.cache}, nil
}

func (i *CachedIndex) Search(query string, k int, filter domain.SearchFilter) ([]domain.ScoredChunk, error) {
	if results, hit := i.cache.Get(query, k, filter); hit {
		return results, nil
	}

	results, err := i.ChunkIndex.Search(query, k, filter)
	if err != nil {
		return nil, err
	}
	i.cache.Put(query, k, filter, results)
	return results, nil
}

type invalidatingStage struct {
	port.StagedIndex
	cache *SearchCache
}

func (s *invalidatingStage) Commit() error {
	defer s.cache.Invalidate()
	return s.StagedIndex.Commit()
}
