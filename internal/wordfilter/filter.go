package wordfilter

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/lexisub/lexisub/internal/lemma"
	"github.com/lexisub/lexisub/internal/subtitle"
	"github.com/lexisub/lexisub/internal/vocab"
	"github.com/lexisub/lexisub/pkg/log"
)

// Class tags a token after classification.
type Class string

const (
	ClassKnown   Class = "known"
	ClassUnknown Class = "unknown"
	ClassIgnored Class = "ignored"
)

// Token is a classified word occurrence within one segment. Tokens are
// ephemeral: produced and consumed within a single filtering pass.
type Token struct {
	SurfaceForm  string
	Lemma        string
	PartOfSpeech string
	Class        Class
	Status       vocab.Status
	Difficulty   vocab.Level
}

// SegmentTokens is the filter output for one segment.
type SegmentTokens struct {
	SegmentIndex int
	Tokens       []Token
	HasUnknown   bool
}

const defaultResolveTimeout = 5 * time.Second

// Filter classifies segment tokens against a user's vocabulary state.
type Filter struct {
	store          vocab.KnowledgeStore
	resolver       lemma.Resolver
	resolveTimeout time.Duration
}

func New(store vocab.KnowledgeStore, resolver lemma.Resolver) *Filter {
	return &Filter{
		store:          store,
		resolver:       resolver,
		resolveTimeout: defaultResolveTimeout,
	}
}

// ClassifySegment tokenizes the segment, applies the language's ignore
// rules, resolves lemmas and classifies each token against the
// knowledge store. Resolver failures degrade the token to unknown;
// store failures abort the segment since there is no ground truth to
// classify against.
func (f *Filter) ClassifySegment(ctx context.Context, seg subtitle.Segment, userID string, lang language.Tag) (SegmentTokens, error) {
	rules := rulesFor(lang)
	surfaces := rules.Tokenize(seg.Text)

	out := SegmentTokens{SegmentIndex: seg.Index}
	out.Tokens = make([]Token, 0, len(surfaces))

	for i, surface := range surfaces {
		token := Token{SurfaceForm: surface}

		if reason := f.ignoreReason(rules, surface, i > 0); reason != "" {
			token.Class = ClassIgnored
			out.Tokens = append(out.Tokens, token)
			continue
		}

		res, err := f.resolve(ctx, surface, lang)
		if err != nil {
			// Degrade to unknown rather than failing the segment.
			log.Warn("Lemma resolution degraded for %q (%s): %v", surface, lang, err)
			token.Lemma = strings.ToLower(surface)
			token.Class = ClassUnknown
			token.Status = vocab.StatusNew
			out.Tokens = append(out.Tokens, token)
			out.HasUnknown = true
			continue
		}
		token.Lemma = res.Lemma
		token.PartOfSpeech = res.PartOfSpeech

		if hasIgnoredPOS(rules, res) {
			token.Class = ClassIgnored
			out.Tokens = append(out.Tokens, token)
			continue
		}

		entry, err := f.store.Get(ctx, userID, lang, token.Lemma)
		if err != nil {
			return SegmentTokens{}, err
		}
		if entry == nil {
			// First sight: record it so progress tracking starts now.
			entry, err = f.store.Upsert(ctx, userID, lang, token.Lemma, vocab.StatusNew)
			if err != nil {
				return SegmentTokens{}, err
			}
		}

		token.Status = entry.Status
		token.Difficulty = entry.Difficulty
		if entry.Status.IsKnown() {
			token.Class = ClassKnown
		} else {
			token.Class = ClassUnknown
			out.HasUnknown = true
		}
		out.Tokens = append(out.Tokens, token)
	}

	return out, nil
}

func (f *Filter) ignoreReason(rules Rules, surface string, midSentence bool) string {
	switch {
	case isNumeric(surface):
		return "numeric"
	case isSingleLetter(surface):
		return "single letter"
	case rules.IsProperNoun != nil && rules.IsProperNoun(surface, midSentence):
		return "proper noun"
	default:
		if _, ok := rules.Interjections[strings.ToLower(surface)]; ok {
			return "interjection"
		}
	}
	return ""
}

// hasIgnoredPOS checks every level of the resolver's POS hierarchy, so
// a rule like 固有名詞 (proper noun) fires even though the top-level
// tag is the coarser 名詞.
func hasIgnoredPOS(rules Rules, res lemma.Resolution) bool {
	if _, ok := rules.IgnorePOS[res.PartOfSpeech]; ok {
		return true
	}
	for _, pos := range res.PartsOfSpeech {
		if _, ok := rules.IgnorePOS[pos]; ok {
			return true
		}
	}
	return false
}

func (f *Filter) resolve(ctx context.Context, surface string, lang language.Tag) (lemma.Resolution, error) {
	timeout := f.resolveTimeout
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return f.resolver.Lemmatize(ctx, surface, lang)
}
