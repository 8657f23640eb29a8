// Package cache holds the two read-side caches: rendered watch pages
// (in-process LRU) and file metadata (Redis, shared between nodes).
package cache

import (
	"time"

	"github.com/bluele/gcache"
)

// PageCache keeps rendered watch pages so repeat views skip the
// registry lookup and template execution entirely.
type PageCache struct {
	c gcache.Cache
}

func NewPageCache(size int, ttl time.Duration) *PageCache {
	return &PageCache{
		c: gcache.New(size).LRU().Expiration(ttl).Build(),
	}
}

func (p *PageCache) Get(key string) ([]byte, bool) {
	v, err := p.c.Get(key)
	if err != nil {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (p *PageCache) Set(key string, page []byte) {
	_ = p.c.Set(key, page)
}

func (p *PageCache) Remove(key string) {
	p.c.Remove(key)
}

// HitRate reports the cache hit rate for the /status payload.
func (p *PageCache) HitRate() float64 {
	return p.c.HitRate()
}

// Len reports the number of live entries.
func (p *PageCache) Len() int {
	return p.c.Len(true)
}
