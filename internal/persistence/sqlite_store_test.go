package persistence

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/lexisub/lexisub/internal/jobs"
	"github.com/lexisub/lexisub/internal/vocab"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	store, err := NewSQLiteStore(filepath.Join(dir, "lexisub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_JobsRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	job := &jobs.FilterJob{
		ID:        "00000000-0000-0000-0000-000000000001",
		Source:    "manual",
		DedupeKey: "u1|ep1.srt|en",
		Payload: jobs.JobPayload{
			UserID:         "u1",
			SubtitleFile:   "/subs/ep1.srt",
			Language:       "de",
			TargetLanguage: "en",
			LearnerLevel:   "B1",
		},
		Status:    jobs.StatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.UpsertJob(ctx, job))

	all, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, job.ID, all[0].ID)
	assert.Equal(t, job.Status, all[0].Status)
	assert.Equal(t, job.Payload.SubtitleFile, all[0].Payload.SubtitleFile)
	assert.Equal(t, job.Payload.LearnerLevel, all[0].Payload.LearnerLevel)

	require.NoError(t, store.DeleteJob(ctx, job.ID))
	all, err = store.LoadJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLiteStore_VocabUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Upsert(ctx, "u1", language.German, "verstehen", vocab.StatusNew)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, vocab.StatusNew, first.Status)

	// Marking known then re-upserting must not reset the status.
	_, err = store.SetStatus(ctx, "u1", language.German, "verstehen", vocab.StatusKnown)
	require.NoError(t, err)

	again, err := store.Upsert(ctx, "u1", language.German, "verstehen", vocab.StatusNew)
	require.NoError(t, err)
	assert.Equal(t, vocab.StatusKnown, again.Status)
}

func TestSQLiteStore_ConcurrentFirstSightCreatesOneRow(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Upsert(ctx, "u1", language.German, "gleichzeitig", vocab.StatusNew)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entry, err := store.Get(ctx, "u1", language.German, "gleichzeitig")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, vocab.StatusNew, entry.Status)
}

func TestSQLiteStore_GetAbsentReturnsNil(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	entry, err := store.Get(context.Background(), "u1", language.German, "fehlt")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSQLiteStore_SetWordInfo(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "u1", language.German, "laufen", vocab.StatusNew)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "u2", language.German, "laufen", vocab.StatusNew)
	require.NoError(t, err)

	require.NoError(t, store.SetWordInfo(ctx, language.German, "laufen", vocab.LevelA2, 412))

	for _, user := range []string{"u1", "u2"} {
		entry, err := store.Get(ctx, user, language.German, "laufen")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, vocab.LevelA2, entry.Difficulty)
		assert.Equal(t, 412, entry.FrequencyRank)
	}
}
