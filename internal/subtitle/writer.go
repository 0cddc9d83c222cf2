package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// DefaultWriter is the default subtitle file writer
type DefaultWriter struct{}

// NewWriter creates a new subtitle file writer
func NewWriter() Writer {
	return &DefaultWriter{}
}

// Write serializes the subtitle file to the given path
func (w *DefaultWriter) Write(path string, file *File) error {
	if file == nil {
		return fmt.Errorf("subtitle data is empty")
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	writer := bufio.NewWriter(out)
	defer writer.Flush()

	return Serialize(writer, file.Segments)
}

// Serialize writes segments as SRT text with re-numbered sequential
// indices. Translated text is used when present, the original otherwise.
func Serialize(w io.Writer, segments []Segment) error {
	for i, seg := range segments {
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1,
			formatDuration(seg.StartTime),
			formatDuration(seg.EndTime),
			seg.DisplayText(),
		); err != nil {
			return err
		}
	}
	return nil
}

// SerializeString renders segments as SRT text.
func SerializeString(segments []Segment) string {
	var sb strings.Builder
	_ = Serialize(&sb, segments)
	return sb.String()
}

// formatDuration formats time.Duration to SRT time format with
// millisecond precision
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
