package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]*FilterJob
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]*FilterJob)}
}

func (s *memJobStore) LoadJobs(_ context.Context) ([]*FilterJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]*FilterJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		ret = append(ret, cloneJob(job))
	}
	return ret, nil
}

func (s *memJobStore) UpsertJob(_ context.Context, job *FilterJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *memJobStore) DeleteJob(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	return nil
}

func TestQueue_Enqueue_DeduplicatesSameKey(t *testing.T) {
	q := NewQueue(2, nil)

	jobA, createdA := q.Enqueue(EnqueueRequest{
		Source:    "manual",
		DedupeKey: "u1|ep1.srt|de",
	})
	jobB, createdB := q.Enqueue(EnqueueRequest{
		Source:    "api",
		DedupeKey: "u1|ep1.srt|de",
	})

	require.True(t, createdA)
	require.False(t, createdB)
	require.NotNil(t, jobA)
	require.NotNil(t, jobB)
	assert.Equal(t, jobA.ID, jobB.ID)
}

func TestQueue_Enqueue_AllowsRetryAfterFailure(t *testing.T) {
	q := NewQueue(1, nil)

	var attempts int
	q.Start(func(_ context.Context, _ *FilterJob) error {
		attempts++
		if attempts == 1 {
			return assert.AnError
		}
		return nil
	})
	defer q.Stop()

	first, created := q.Enqueue(EnqueueRequest{
		Source:    "manual",
		DedupeKey: "retry-key",
	})
	require.True(t, created)
	require.NotNil(t, first)

	require.Eventually(t, func() bool {
		got, ok := q.Get(first.ID)
		return ok && got != nil && got.Status == StatusFailed
	}, time.Second, 10*time.Millisecond)

	second, created := q.Enqueue(EnqueueRequest{
		Source:    "manual",
		DedupeKey: "retry-key",
	})
	require.True(t, created)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)

	require.Eventually(t, func() bool {
		got, ok := q.Get(second.ID)
		return ok && got != nil && got.Status == StatusSuccess
	}, time.Second, 10*time.Millisecond)
}

func TestQueue_StopLeavesPendingJobsForRestart(t *testing.T) {
	store := newMemJobStore()

	q := NewQueue(1, store)
	job, created := q.Enqueue(EnqueueRequest{
		Source:    "manual",
		DedupeKey: "restart-key",
	})
	require.True(t, created)

	// Never started, so the job is still pending at shutdown. It must
	// stay pending rather than move to a terminal state: the next
	// process picks it up through hydration.
	q.Stop()

	got, ok := q.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)

	restarted := NewQueue(1, store)
	done := make(chan string, 1)
	restarted.Start(func(_ context.Context, j *FilterJob) error {
		done <- j.ID
		return nil
	})
	defer restarted.Stop()

	select {
	case id := <-done:
		assert.Equal(t, job.ID, id)
	case <-time.After(time.Second):
		t.Fatal("hydrated job was never dispatched")
	}
}

func TestQueue_WorkerReceivesPayload(t *testing.T) {
	q := NewQueue(1, nil)

	payloadCh := make(chan JobPayload, 1)
	q.Start(func(_ context.Context, job *FilterJob) error {
		payloadCh <- job.Payload
		return nil
	})
	defer q.Stop()

	_, created := q.Enqueue(EnqueueRequest{
		Source:    "manual",
		DedupeKey: "payload-key",
		Payload: JobPayload{
			UserID:         "u1",
			SubtitleFile:   "/subs/ep1.srt",
			TargetLanguage: "en",
			LearnerLevel:   "B1",
		},
	})
	require.True(t, created)

	select {
	case got := <-payloadCh:
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, "/subs/ep1.srt", got.SubtitleFile)
		assert.Equal(t, "B1", got.LearnerLevel)
	case <-time.After(time.Second):
		t.Fatal("worker never received the job")
	}
}
