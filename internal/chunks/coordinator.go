package chunks

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lexisub/lexisub/pkg/log"
)

// ErrNotReady signals that a chunk's result was requested before the
// chunk reached a terminal state. Callers poll again instead of
// blocking.
var ErrNotReady = errors.New("chunk result not ready")

// Result is the terminal record for one chunk. Output is only valid
// when Status is completed.
type Result[T any] struct {
	ChunkIndex                int
	Status                    Status
	PartialTranslationFailure bool
	Err                       error
	Output                    T
}

// ProcessFunc runs the full pipeline over one chunk. The partial
// return marks a completed chunk whose translation pass degraded.
type ProcessFunc[T any] func(ctx context.Context, chunk Chunk) (output T, partial bool, err error)

// Coordinator dispatches chunks to workers in ascending index order
// and collects their terminal results. Chunks may finish out of order;
// reassembly happens through the index-keyed result map.
type Coordinator[T any] struct {
	concurrency int

	mu      sync.Mutex
	status  map[int]Status
	results map[int]Result[T]
}

func NewCoordinator[T any](concurrency int) *Coordinator[T] {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Coordinator[T]{
		concurrency: concurrency,
		status:      make(map[int]Status),
		results:     make(map[int]Result[T]),
	}
}

// Run processes all chunks and returns once every chunk reached a
// terminal state. Cancellation stops dispatching: not-yet-started
// chunks go straight to skipped, in-flight chunks run to their own
// completion or failure. Chunk failures never abort the run; each
// chunk fails independently.
func (c *Coordinator[T]) Run(ctx context.Context, chunks []Chunk, process ProcessFunc[T]) {
	c.mu.Lock()
	for _, chunk := range chunks {
		c.status[chunk.Index] = StatusPending
	}
	c.mu.Unlock()

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for _, chunk := range chunks {
		chunk := chunk
		// g.Go blocks until a worker slot frees up, so the skip check
		// inside the goroutine sees cancellations raised by chunks
		// that were still in flight when this one was queued.
		g.Go(func() error {
			if ctx.Err() != nil {
				c.finish(Result[T]{ChunkIndex: chunk.Index, Status: StatusSkipped, Err: ctx.Err()})
				return nil
			}
			c.setStatus(chunk.Index, StatusProcessing)
			output, partial, err := process(ctx, chunk)
			if err != nil {
				log.Warn("Chunk %d failed: %v", chunk.Index, err)
				c.finish(Result[T]{ChunkIndex: chunk.Index, Status: StatusFailed, Err: err})
				return nil
			}
			c.finish(Result[T]{
				ChunkIndex:                chunk.Index,
				Status:                    StatusCompleted,
				PartialTranslationFailure: partial,
				Output:                    output,
			})
			return nil
		})
	}

	_ = g.Wait()
}

func (c *Coordinator[T]) setStatus(index int, status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[index] = status
}

func (c *Coordinator[T]) finish(result Result[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[result.ChunkIndex] = result.Status
	c.results[result.ChunkIndex] = result
}

// Result returns the terminal result for a chunk index. While the
// chunk is still pending or processing it returns ErrNotReady, so
// callers can ask for chunk N before earlier chunks finish without
// blocking.
func (c *Coordinator[T]) Result(index int) (Result[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.status[index]
	if !ok {
		return Result[T]{}, errors.New("unknown chunk index")
	}
	if status == StatusPending || status == StatusProcessing {
		return Result[T]{}, ErrNotReady
	}
	return c.results[index], nil
}

// Results returns all terminal results in ascending chunk index order.
// Call after Run returns.
func (c *Coordinator[T]) Results() []Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result[T], 0, len(c.results))
	for _, r := range c.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out
}
