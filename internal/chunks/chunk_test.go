package chunks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexisub/lexisub/internal/subtitle"
)

func seg(index int, start time.Duration) subtitle.Segment {
	return subtitle.Segment{Index: index, StartTime: start, EndTime: start + 2*time.Second, Text: "text"}
}

func TestPartition_EverySegmentInExactlyOneChunk(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		seg(1, 0),
		seg(2, 90*time.Second),
		seg(3, 4*time.Minute),
		seg(4, 5*time.Minute),
		seg(5, 9*time.Minute),
		seg(6, 21*time.Minute),
	}

	out := Partition(segments, 5*time.Minute)
	require.Len(t, out, 3)

	seen := make(map[int]int)
	total := 0
	for _, chunk := range out {
		for _, s := range chunk.Segments {
			seen[s.Index]++
			total++
			assert.GreaterOrEqual(t, s.StartTime, chunk.StartTime)
			assert.Less(t, s.StartTime, chunk.EndTime)
		}
	}
	assert.Len(t, seen, 6)
	assert.Equal(t, 6, total)
	for idx, count := range seen {
		assert.Equal(t, 1, count, "segment %d", idx)
	}
}

func TestPartition_ChunksTimeOrderedAndNonOverlapping(t *testing.T) {
	t.Parallel()

	segments := []subtitle.Segment{
		seg(1, 30*time.Second),
		seg(2, 6*time.Minute),
		seg(3, 12*time.Minute),
	}

	out := Partition(segments, 5*time.Minute)
	require.Len(t, out, 3)
	for i, chunk := range out {
		assert.Equal(t, i, chunk.Index)
		assert.Less(t, chunk.StartTime, chunk.EndTime)
		if i > 0 {
			assert.GreaterOrEqual(t, chunk.StartTime, out[i-1].EndTime)
		}
	}
}

func TestPartition_BoundarySegmentGoesToLaterChunk(t *testing.T) {
	t.Parallel()

	// A segment starting exactly on a window boundary belongs to the
	// window it opens, not the one it closes.
	segments := []subtitle.Segment{
		seg(1, 0),
		seg(2, 5*time.Minute),
	}

	out := Partition(segments, 5*time.Minute)
	require.Len(t, out, 2)
	assert.Equal(t, []int{1}, segmentIndexes(out[0]))
	assert.Equal(t, []int{2}, segmentIndexes(out[1]))
	assert.Equal(t, 5*time.Minute, out[1].StartTime)
}

func TestPartition_EmptyInput(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Partition(nil, time.Minute))
}

func segmentIndexes(c Chunk) []int {
	out := make([]int, 0, len(c.Segments))
	for _, s := range c.Segments {
		out = append(out, s.Index)
	}
	return out
}
