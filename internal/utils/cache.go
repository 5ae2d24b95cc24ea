package utils

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"ourcity/internal/logger"
)

const defaultCacheSize = 256

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache is an LRU cache whose entries also expire.
type TTLCache struct {
	entries *lru.Cache[string, cacheEntry]
	now     func() time.Time
}

var (
	sharedCache     *TTLCache
	sharedCacheOnce sync.Once
)

// GetCache returns the process-wide response cache.
func GetCache() *TTLCache {
	sharedCacheOnce.Do(func() {
		sharedCache = NewTTLCache(defaultCacheSize)
	})
	return sharedCache
}

func NewTTLCache(size int) *TTLCache {
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to create LRU cache")
	}
	return &TTLCache{entries: entries, now: time.Now}
}

func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	c.entries.Add(key, cacheEntry{value: value, expiresAt: c.now().Add(ttl)})
}

// Get returns nil for missing or expired keys.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (c *TTLCache) Delete(key string) {
	c.entries.Remove(key)
}

// DeletePrefix drops every key in a namespace such as "analytics:".
func (c *TTLCache) DeletePrefix(prefix string) {
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
}
