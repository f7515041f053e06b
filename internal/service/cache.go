package service

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/utafrali/catalogsearch/internal/index"
)

// DefaultCacheSize is the number of ranked result lists kept when no size
// is configured.
const DefaultCacheSize = 1024

// cachedHits is a ranked result list tagged with the index generation it
// was computed at.
type cachedHits struct {
	generation uint64
	hits       []index.Hit
}

// queryCache memoizes ranked hit lists. An entry is served only while the
// index generation is unchanged, so any mutation invalidates every entry
// without an explicit purge.
type queryCache struct {
	lru *lru.Cache[string, cachedHits]
}

// newQueryCache returns nil for a non-positive size, which disables caching.
func newQueryCache(size int) (*queryCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, cachedHits](size)
	if err != nil {
		return nil, err
	}
	return &queryCache{lru: c}, nil
}

// cacheKey lowercases and trims the query. Inner whitespace is kept because
// phrase scoring depends on it.
func cacheKey(query string, limit int) string {
	return strconv.Itoa(limit) + "|" + strings.ToLower(strings.TrimSpace(query))
}

func (c *queryCache) get(key string, generation uint64) ([]index.Hit, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.lru.Get(key)
	if !ok || e.generation != generation {
		return nil, false
	}
	return e.hits, true
}

func (c *queryCache) put(key string, generation uint64, hits []index.Hit) {
	if c == nil {
		return
	}
	c.lru.Add(key, cachedHits{generation: generation, hits: hits})
}

func (c *queryCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
