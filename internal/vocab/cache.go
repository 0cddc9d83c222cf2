package vocab

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/text/language"
)

// DefaultCacheTTL bounds how long a cached classification may be served.
const DefaultCacheTTL = time.Hour

// Cache fronts the knowledge store with time-bounded entries. It is
// injectable so tests can substitute a no-op. Implementations must
// never fail a read: on any internal problem Get reports a miss and
// the caller falls through to the store.
type Cache interface {
	Get(userID string, lang language.Tag, lemma string) (*Entry, bool)
	Set(entry *Entry, ttl time.Duration)
	// Invalidate removes every user's cached entry for the lemma.
	Invalidate(lang language.Tag, lemma string)
	// InvalidateLevel removes cached entries of the given difficulty.
	InvalidateLevel(lang language.Tag, level Level)
	InvalidateAll()
}

type cacheItem struct {
	entry      Entry
	insertedAt time.Time
	ttl        time.Duration
}

func (i cacheItem) expired(now time.Time) bool {
	return now.Sub(i.insertedAt) >= i.ttl
}

// MemoryCache is the default process-wide TTL cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		items: make(map[string]cacheItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

func cacheKey(userID string, lang language.Tag, lemma string) string {
	return fmt.Sprintf("%s|%s|%s", userID, lang, lemma)
}

func (c *MemoryCache) Get(userID string, lang language.Tag, lemma string) (*Entry, bool) {
	c.mu.RLock()
	item, ok := c.items[cacheKey(userID, lang, lemma)]
	c.mu.RUnlock()
	if !ok || item.expired(c.now()) {
		return nil, false
	}
	entry := item.entry
	return &entry, true
}

func (c *MemoryCache) Set(entry *Entry, ttl time.Duration) {
	if entry == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.items[cacheKey(entry.UserID, entry.Language, entry.Lemma)] = cacheItem{
		entry:      *entry,
		insertedAt: c.now(),
		ttl:        ttl,
	}
	c.mu.Unlock()
}

func (c *MemoryCache) Invalidate(lang language.Tag, lemma string) {
	c.mu.Lock()
	for key, item := range c.items {
		if item.entry.Language == lang && item.entry.Lemma == lemma {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
}

func (c *MemoryCache) InvalidateLevel(lang language.Tag, level Level) {
	c.mu.Lock()
	for key, item := range c.items {
		if item.entry.Language == lang && item.entry.Difficulty == level {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
}

func (c *MemoryCache) InvalidateAll() {
	c.mu.Lock()
	c.items = make(map[string]cacheItem)
	c.mu.Unlock()
}

// SweepExpired drops expired items and returns how many were removed.
// Called periodically; correctness does not depend on it since Get
// checks expiry itself.
func (c *MemoryCache) SweepExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached items, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// NoopCache always misses. It stands in when caching is disabled or
// the backing cache is unavailable.
type NoopCache struct{}

func (NoopCache) Get(string, language.Tag, string) (*Entry, bool) { return nil, false }
func (NoopCache) Set(*Entry, time.Duration)                       {}
func (NoopCache) Invalidate(language.Tag, string)                 {}
func (NoopCache) InvalidateLevel(language.Tag, Level)             {}
func (NoopCache) InvalidateAll()                                  {}
