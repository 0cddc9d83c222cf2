package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lexisub/lexisub/internal/lemma"
	"github.com/lexisub/lexisub/internal/subtitle"
	"github.com/lexisub/lexisub/internal/translate"
	"github.com/lexisub/lexisub/internal/vocab"
)

type ErrorType int

const (
	ErrMalformedSubtitle ErrorType = iota
	ErrLemmaResolution
	ErrKnowledgeStore
	ErrTranslationEngine
	ErrCache
	ErrValidation
	ErrConfig
	ErrUnknown
)

func (t ErrorType) String() string {
	switch t {
	case ErrMalformedSubtitle:
		return "MalformedSubtitle"
	case ErrLemmaResolution:
		return "LemmaResolution"
	case ErrKnowledgeStore:
		return "KnowledgeStoreUnavailable"
	case ErrTranslationEngine:
		return "TranslationEngine"
	case ErrCache:
		return "CacheUnavailable"
	case ErrValidation:
		return "Validation"
	case ErrConfig:
		return "Config"
	default:
		return "Unknown"
	}
}

// PipelineError is the caller-facing error of the filtering pipeline.
// The Type is what learners see on a failed chunk; internal detail
// stays in Cause.
type PipelineError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *PipelineError {
	return &PipelineError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func WrapError(err error, errorType ErrorType, message string) *PipelineError {
	return &PipelineError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   err,
	}
}

func (e *PipelineError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func (e *PipelineError) WithContext(key string, value any) *PipelineError {
	e.Context[key] = value
	return e
}

func IsErrorType(err error, errorType ErrorType) bool {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Type == errorType
	}
	return false
}

// Classify maps component errors onto the taxonomy so per-chunk status
// can name a category without leaking internals.
func Classify(err error) ErrorType {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Type
	}
	var malformed *subtitle.MalformedSubtitleError
	if errors.As(err, &malformed) {
		return ErrMalformedSubtitle
	}
	var resolution *lemma.ResolutionError
	if errors.As(err, &resolution) {
		return ErrLemmaResolution
	}
	switch {
	case errors.Is(err, vocab.ErrStoreUnavailable):
		return ErrKnowledgeStore
	case errors.Is(err, translate.ErrEngineUnavailable):
		return ErrTranslationEngine
	}
	return ErrUnknown
}
