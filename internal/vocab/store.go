package vocab

import (
	"context"

	"golang.org/x/text/language"
)

// KnowledgeStore is the authoritative source of vocabulary entries.
// It is the only writer of record; all other components read through
// the cache. Implementations must guarantee at most one entry per
// (user, language, lemma) under concurrent upserts.
type KnowledgeStore interface {
	// Get returns the entry, or nil when the lemma was never seen.
	Get(ctx context.Context, userID string, lang language.Tag, lemma string) (*Entry, error)

	// Upsert records a first sight of a lemma with the given default
	// status. If the entry already exists it is returned unchanged.
	Upsert(ctx context.Context, userID string, lang language.Tag, lemma string, defaultStatus Status) (*Entry, error)

	// SetStatus updates the learning state, creating the entry if needed.
	SetStatus(ctx context.Context, userID string, lang language.Tag, lemma string, status Status) (*Entry, error)
}
