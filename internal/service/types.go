package service

import (
	"time"

	"golang.org/x/text/language"

	"github.com/lexisub/lexisub/internal/blocking"
	"github.com/lexisub/lexisub/internal/chunks"
	"github.com/lexisub/lexisub/internal/vocab"
)

// ProcessRequest describes one filtering run over a subtitle file.
type ProcessRequest struct {
	UserID         string
	SubtitlePath   string
	Language       language.Tag // zero value: detect from subtitle text
	TargetLanguage language.Tag
	LearnerLevel   vocab.Level
}

// ChunkSummary is the machine-readable per-chunk report.
type ChunkSummary struct {
	ChunkIndex                int             `json:"chunk_index"`
	TotalSegments             int             `json:"total_segments"`
	UnknownWordCount          int             `json:"unknown_word_count"`
	ComprehensionScore        float64         `json:"comprehension_score"`
	BlockingWords             []blocking.Word `json:"blocking_words"`
	Status                    chunks.Status   `json:"status"`
	PartialTranslationFailure bool            `json:"partial_translation_failure,omitempty"`
	Error                     string          `json:"error,omitempty"`
}

// ChunkOutput is what one chunk's pipeline pass produces before the
// coordinator stamps its terminal status.
type ChunkOutput struct {
	Subtitle string
	Summary  ChunkSummary
}

// ChunkResult is the caller-visible outcome for one chunk.
type ChunkResult struct {
	Subtitle string       `json:"-"`
	Summary  ChunkSummary `json:"summary"`
}

// JobResult aggregates all chunk results of a processing run, in chunk
// index order. Subtitle concatenates the completed chunks' output.
type JobResult struct {
	UserID     string        `json:"user_id"`
	Language   language.Tag  `json:"language"`
	Chunks     []ChunkResult `json:"chunks"`
	Subtitle   string        `json:"-"`
	Warnings   []string      `json:"warnings,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Completed reports whether every chunk reached completed status.
func (r *JobResult) Completed() bool {
	for _, c := range r.Chunks {
		if c.Summary.Status != chunks.StatusCompleted {
			return false
		}
	}
	return true
}
