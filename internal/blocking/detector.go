package blocking

import (
	"sort"

	"github.com/lexisub/lexisub/internal/vocab"
	"github.com/lexisub/lexisub/internal/wordfilter"
)

// DefaultFrequencyThreshold is the in-chunk occurrence count at which a
// repeated unknown lemma starts to impede comprehension.
const DefaultFrequencyThreshold = 3

// maxContexts caps the example occurrences carried per word.
const maxContexts = 5

// Context is one occurrence of a blocking word within the chunk.
type Context struct {
	SegmentIndex int    `json:"segment_index"`
	SurfaceForm  string `json:"surface_form"`
}

// Word is a per-chunk report artifact: an unknown lemma judged likely to
// impede comprehension. Recomputed for every chunk, never persisted.
type Word struct {
	Lemma            string    `json:"lemma"`
	FrequencyInChunk int       `json:"frequency_in_chunk"`
	Contexts         []Context `json:"contexts"`
	ImpactScore      float64   `json:"comprehension_impact_score"`
}

// Detector aggregates unknown tokens across a chunk and picks out the
// blocking ones.
type Detector struct {
	frequencyThreshold int
}

func NewDetector(frequencyThreshold int) *Detector {
	if frequencyThreshold <= 0 {
		frequencyThreshold = DefaultFrequencyThreshold
	}
	return &Detector{frequencyThreshold: frequencyThreshold}
}

type lemmaGroup struct {
	word       Word
	difficulty vocab.Level
	firstSeen  int
}

// Detect groups unknown tokens by lemma across the chunk's segments. A
// lemma is blocking when it repeats at or above the frequency threshold,
// or when its difficulty sits at or below the learner's declared level:
// a word the learner should already know is the more disruptive gap.
// Either condition alone suffices.
//
// A chunk without unknown tokens yields an empty list, which callers
// must read as "nothing blocks here", not as an error.
func (d *Detector) Detect(segments []wordfilter.SegmentTokens, learnerLevel vocab.Level) []Word {
	groups := make(map[string]*lemmaGroup)
	order := 0

	for _, seg := range segments {
		for _, tok := range seg.Tokens {
			if tok.Class != wordfilter.ClassUnknown || tok.Lemma == "" {
				continue
			}
			g, ok := groups[tok.Lemma]
			if !ok {
				g = &lemmaGroup{
					word:       Word{Lemma: tok.Lemma},
					difficulty: tok.Difficulty,
					firstSeen:  order,
				}
				groups[tok.Lemma] = g
			}
			order++
			g.word.FrequencyInChunk++
			if len(g.word.Contexts) < maxContexts {
				g.word.Contexts = append(g.word.Contexts, Context{
					SegmentIndex: seg.SegmentIndex,
					SurfaceForm:  tok.SurfaceForm,
				})
			}
		}
	}

	blocking := make([]*lemmaGroup, 0, len(groups))
	for _, g := range groups {
		if !d.isBlocking(g, learnerLevel) {
			continue
		}
		g.word.ImpactScore = float64(g.word.FrequencyInChunk) * difficultyWeight(learnerLevel, g.difficulty)
		blocking = append(blocking, g)
	}

	sort.Slice(blocking, func(i, j int) bool {
		if blocking[i].word.ImpactScore != blocking[j].word.ImpactScore {
			return blocking[i].word.ImpactScore > blocking[j].word.ImpactScore
		}
		return blocking[i].firstSeen < blocking[j].firstSeen
	})

	out := make([]Word, 0, len(blocking))
	for _, g := range blocking {
		out = append(out, g.word)
	}
	return out
}

func (d *Detector) isBlocking(g *lemmaGroup, learnerLevel vocab.Level) bool {
	if g.word.FrequencyInChunk >= d.frequencyThreshold {
		return true
	}
	// Words without a difficulty band can only block through repetition.
	if g.difficulty == vocab.LevelUnknown || learnerLevel == vocab.LevelUnknown {
		return false
	}
	return g.difficulty <= learnerLevel
}

// difficultyWeight scales impact by how far the word sits below the
// learner's level: not knowing an easy word hurts comprehension more
// than not knowing a hard one. Words above the level taper toward zero.
func difficultyWeight(learnerLevel, wordLevel vocab.Level) float64 {
	if wordLevel == vocab.LevelUnknown || learnerLevel == vocab.LevelUnknown {
		return 1.0
	}
	if wordLevel <= learnerLevel {
		return 1.0 + float64(learnerLevel-wordLevel)
	}
	return 1.0 / (1.0 + float64(wordLevel-learnerLevel))
}

// Lemmas returns the lemma set of the blocking list, for membership
// checks by the translation selector.
func Lemmas(words []Word) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w.Lemma] = struct{}{}
	}
	return set
}
