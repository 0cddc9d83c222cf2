package lemma

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Resolution is the dictionary form of a token.
type Resolution struct {
	Lemma        string
	PartOfSpeech string
	// PartsOfSpeech is the analyzer's POS hierarchy from coarse to
	// fine (e.g. 名詞, 固有名詞, 地域). Empty for resolvers that only
	// produce a single tag.
	PartsOfSpeech []string
}

// Resolver maps a surface token to its dictionary form (lemma).
// Implementations may call out to external analyzers and must respect
// the context deadline.
type Resolver interface {
	Lemmatize(ctx context.Context, token string, lang language.Tag) (Resolution, error)
}

// ResolutionError reports a token that could not be resolved. Callers
// degrade the token to "unknown" rather than failing the segment.
type ResolutionError struct {
	Token string
	Cause error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve lemma for %q: %v", e.Token, e.Cause)
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// StaticResolver resolves lemmas from a fixed surface→lemma table and
// falls back to the folded surface form for unlisted tokens. It serves
// space-delimited languages where inflection tables are supplied as
// data, and doubles as the test resolver.
type StaticResolver struct {
	entries map[string]Resolution
}

func NewStaticResolver(entries map[string]Resolution) *StaticResolver {
	if entries == nil {
		entries = make(map[string]Resolution)
	}
	return &StaticResolver{entries: entries}
}

func (r *StaticResolver) Lemmatize(_ context.Context, token string, _ language.Tag) (Resolution, error) {
	folded := strings.ToLower(strings.TrimSpace(token))
	if res, ok := r.entries[folded]; ok {
		return res, nil
	}
	return Resolution{Lemma: folded}, nil
}
