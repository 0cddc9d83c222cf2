package chunks

import (
	"time"

	"github.com/lexisub/lexisub/internal/subtitle"
)

// Status is a chunk's processing state. skipped is the terminal
// outcome for chunks that were never dispatched before cancellation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// DefaultWindow bounds one chunk's time span.
const DefaultWindow = 5 * time.Minute

// Chunk is a contiguous time window over the ordered segment sequence.
type Chunk struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Segments  []subtitle.Segment
}

// Partition splits segments into time-windowed chunks. Assignment is a
// pure function of the segment's start time: the segment belongs to the
// window containing its start, so windows never overlap and every
// segment lands in exactly one chunk. Windows without segments are
// dropped; chunk indexes stay sequential so outputs reassemble in
// order.
//
// Segments are assumed ordered by start time, as the codec produces
// them.
func Partition(segments []subtitle.Segment, window time.Duration) []Chunk {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(segments) == 0 {
		return nil
	}

	var out []Chunk
	currentWindow := -1
	for _, seg := range segments {
		w := int(seg.StartTime / window)
		if w != currentWindow {
			out = append(out, Chunk{
				Index:     len(out),
				StartTime: time.Duration(w) * window,
				EndTime:   time.Duration(w+1) * window,
			})
			currentWindow = w
		}
		last := &out[len(out)-1]
		last.Segments = append(last.Segments, seg)
	}
	return out
}
