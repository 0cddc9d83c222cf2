package translate

import (
	"context"
	"time"

	"golang.org/x/text/language"

	"github.com/lexisub/lexisub/internal/subtitle"
	"github.com/lexisub/lexisub/internal/wordfilter"
	"github.com/lexisub/lexisub/pkg/log"
)

const defaultBatchSize = 20

// SelectSegments returns the indexes (subtitle indexes, not slice
// positions) of segments containing at least one blocking lemma. A
// segment with only non-blocking unknown words is left untranslated:
// the translation budget is reserved for real comprehension gaps.
// Selection is pure, so reruns over the same input pick the same set.
func SelectSegments(tokens []wordfilter.SegmentTokens, blockingLemmas map[string]struct{}) []int {
	selected := make([]int, 0)
	for _, seg := range tokens {
		if !seg.HasUnknown {
			continue
		}
		for _, tok := range seg.Tokens {
			if tok.Class != wordfilter.ClassUnknown {
				continue
			}
			if _, ok := blockingLemmas[tok.Lemma]; ok {
				selected = append(selected, seg.SegmentIndex)
				break
			}
		}
	}
	return selected
}

// Applier batches selected segments through the engine and writes the
// translated text back onto the segments.
type Applier struct {
	engine    Engine
	timeout   time.Duration
	batchSize int
}

func NewApplier(engine Engine, timeout time.Duration) *Applier {
	if timeout <= 0 {
		timeout = defaultEngineTimeout
	}
	return &Applier{engine: engine, timeout: timeout, batchSize: defaultBatchSize}
}

// Apply translates the selected segments in place. Engine failures do
// not fail the pass: affected segments keep an empty translated_text
// (reading as "use original text") and the return value reports the
// pass as partial. Only context cancellation propagates as an error.
func (a *Applier) Apply(ctx context.Context, segments []subtitle.Segment, selected []int, source, target language.Tag) (bool, error) {
	if len(selected) == 0 {
		return false, nil
	}

	byIndex := make(map[int]int, len(segments))
	for pos, seg := range segments {
		byIndex[seg.Index] = pos
	}

	items := make([]Item, 0, len(selected))
	for _, idx := range selected {
		pos, ok := byIndex[idx]
		if !ok {
			continue
		}
		items = append(items, Item{SegmentIndex: idx, Text: segments[pos].Text})
	}

	partial := false
	for start := 0; start < len(items); start += a.batchSize {
		end := min(start+a.batchSize, len(items))
		batch := items[start:end]

		resp, err := a.translateBatch(ctx, BatchRequest{Source: source, Target: target, Items: batch})
		if err != nil {
			if ctx.Err() != nil {
				return partial, ctx.Err()
			}
			log.Warn("Translation batch of %d segments failed: %v", len(batch), err)
			partial = true
			continue
		}

		translated := make(map[int]string, len(resp.Items))
		for _, item := range resp.Items {
			translated[item.SegmentIndex] = item.Text
		}
		for _, item := range batch {
			text, ok := translated[item.SegmentIndex]
			if !ok || text == "" {
				partial = true
				continue
			}
			segments[byIndex[item.SegmentIndex]].TranslatedText = text
		}
	}
	return partial, nil
}

func (a *Applier) translateBatch(ctx context.Context, req BatchRequest) (BatchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.engine.Translate(ctx, req)
}
