package subtitle

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Reader is the interface for reading subtitle files
type Reader interface {
	Read() (*File, error)
}

// Writer is the interface for writing subtitle files
type Writer interface {
	Write(path string, file *File) error
}

// Segment represents a single timed subtitle entry
type Segment struct {
	Index          int           `json:"index"`
	StartTime      time.Duration `json:"start_time"`
	EndTime        time.Duration `json:"end_time"`
	Text           string        `json:"text"`
	TranslatedText string        `json:"translated_text,omitempty"`
}

// DisplayText returns the translated text when present, else the original.
func (s Segment) DisplayText() string {
	if s.TranslatedText != "" {
		return s.TranslatedText
	}
	return s.Text
}

// File represents a parsed subtitle file
type File struct {
	Segments []Segment
	Language language.Tag
	Format   string // e.g. SRT
	Path     string
	// Warnings collects entries skipped during a tolerant parse.
	Warnings []string
}

// MalformedSubtitleError reports an entry that could not be parsed.
type MalformedSubtitleError struct {
	Line   int
	Reason string
}

func (e *MalformedSubtitleError) Error() string {
	return fmt.Sprintf("malformed subtitle at line %d: %s", e.Line, e.Reason)
}
