package translate

import (
	"context"
	"errors"

	"golang.org/x/text/language"
)

// ErrEngineUnavailable marks translation engine failures. Callers keep
// the chunk alive and mark it partially translated instead of failing.
var ErrEngineUnavailable = errors.New("translation engine unavailable")

// Item is one segment's text travelling through the engine. The index
// ties the translated text back to its segment.
type Item struct {
	SegmentIndex int    `json:"segment_index"`
	Text         string `json:"text"`
}

// BatchRequest asks the engine for translations of selected segments.
type BatchRequest struct {
	Source language.Tag `json:"source_language"`
	Target language.Tag `json:"target_language"`
	Items  []Item       `json:"items"`
}

// BatchResponse carries translated items. Items the engine could not
// translate are simply absent.
type BatchResponse struct {
	Items []Item `json:"items"`
}

// Engine translates segment batches. Implementations must honor the
// context deadline.
type Engine interface {
	Translate(ctx context.Context, req BatchRequest) (BatchResponse, error)
}

// NoopEngine translates nothing. Used when no translation endpoint is
// configured: selected segments keep their original text and the chunk
// is reported as partially translated.
type NoopEngine struct{}

func (NoopEngine) Translate(context.Context, BatchRequest) (BatchResponse, error) {
	return BatchResponse{}, nil
}
