package vocab

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
)

// CachedStore is the read-through view over the knowledge store.
// Reads are served from the cache when possible; concurrent misses for
// the same key are collapsed into a single store query. Every write
// invalidates the cache before the write is acknowledged, so a learner
// marking a word known is never served a stale classification.
type CachedStore struct {
	store KnowledgeStore
	cache Cache
	ttl   time.Duration
	sf    singleflight.Group
}

func NewCachedStore(store KnowledgeStore, cache Cache, ttl time.Duration) *CachedStore {
	if cache == nil {
		cache = NoopCache{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{
		store: store,
		cache: cache,
		ttl:   ttl,
	}
}

func (s *CachedStore) Get(ctx context.Context, userID string, lang language.Tag, lemma string) (*Entry, error) {
	if entry, ok := s.cache.Get(userID, lang, lemma); ok {
		return entry, nil
	}

	v, err, _ := s.sf.Do(cacheKey(userID, lang, lemma), func() (any, error) {
		entry, err := s.store.Get(ctx, userID, lang, lemma)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			s.cache.Set(entry, s.ttl)
		}
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	entry, _ := v.(*Entry)
	return entry, nil
}

func (s *CachedStore) Upsert(ctx context.Context, userID string, lang language.Tag, lemma string, defaultStatus Status) (*Entry, error) {
	entry, err := s.store.Upsert(ctx, userID, lang, lemma, defaultStatus)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(lang, lemma)
	s.cache.Set(entry, s.ttl)
	return entry, nil
}

func (s *CachedStore) SetStatus(ctx context.Context, userID string, lang language.Tag, lemma string, status Status) (*Entry, error) {
	entry, err := s.store.SetStatus(ctx, userID, lang, lemma, status)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(lang, lemma)
	s.cache.Set(entry, s.ttl)
	return entry, nil
}

var _ KnowledgeStore = (*CachedStore)(nil)
