package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/lexisub/lexisub/internal/blocking"
	"github.com/lexisub/lexisub/internal/chunks"
	"github.com/lexisub/lexisub/internal/jobs"
	"github.com/lexisub/lexisub/internal/lemma"
	"github.com/lexisub/lexisub/internal/translate"
	"github.com/lexisub/lexisub/internal/vocab"
)

const germanSRT = `1
00:00:01,000 --> 00:00:03,000
Ich verstehe das nicht.

2
00:00:04,000 --> 00:00:06,000
Verstehen ist wichtig.

`

type memStore struct {
	mu      sync.Mutex
	entries map[string]*vocab.Entry
	failing bool
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*vocab.Entry)}
}

func storeKey(userID string, lang language.Tag, lemma string) string {
	return fmt.Sprintf("%s|%s|%s", userID, lang, lemma)
}

func (m *memStore) Get(_ context.Context, userID string, lang language.Tag, lemma string) (*vocab.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, fmt.Errorf("%w: down", vocab.ErrStoreUnavailable)
	}
	if e, ok := m.entries[storeKey(userID, lang, lemma)]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) Upsert(_ context.Context, userID string, lang language.Tag, lemma string, defaultStatus vocab.Status) (*vocab.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, fmt.Errorf("%w: down", vocab.ErrStoreUnavailable)
	}
	k := storeKey(userID, lang, lemma)
	if e, ok := m.entries[k]; ok {
		cp := *e
		return &cp, nil
	}
	e := &vocab.Entry{UserID: userID, Language: lang, Lemma: lemma, Status: defaultStatus}
	m.entries[k] = e
	cp := *e
	return &cp, nil
}

func (m *memStore) SetStatus(_ context.Context, userID string, lang language.Tag, lemma string, status vocab.Status) (*vocab.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := storeKey(userID, lang, lemma)
	e, ok := m.entries[k]
	if !ok {
		e = &vocab.Entry{UserID: userID, Language: lang, Lemma: lemma}
		m.entries[k] = e
	}
	e.Status = status
	cp := *e
	return &cp, nil
}

func (m *memStore) seed(userID string, lang language.Tag, lemma string, status vocab.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[storeKey(userID, lang, lemma)] = &vocab.Entry{
		UserID: userID, Language: lang, Lemma: lemma, Status: status,
	}
}

var testResolver = lemma.NewStaticResolver(map[string]lemma.Resolution{
	"verstehe":  {Lemma: "verstehen", PartOfSpeech: "VERB"},
	"verstehen": {Lemma: "verstehen", PartOfSpeech: "VERB"},
	"ich":       {Lemma: "ich", PartOfSpeech: "PRON"},
	"das":       {Lemma: "das", PartOfSpeech: "DET"},
	"nicht":     {Lemma: "nicht", PartOfSpeech: "ADV"},
	"ist":       {Lemma: "sein", PartOfSpeech: "VERB"},
	"wichtig":   {Lemma: "wichtig", PartOfSpeech: "ADJ"},
})

type scriptedEngine struct {
	mu       sync.Mutex
	failFor  map[int]bool
	requests int
}

func (e *scriptedEngine) Translate(_ context.Context, req translate.BatchRequest) (translate.BatchResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests++
	var resp translate.BatchResponse
	for _, item := range req.Items {
		if e.failFor[item.SegmentIndex] {
			continue
		}
		resp.Items = append(resp.Items, translate.Item{
			SegmentIndex: item.SegmentIndex,
			Text:         "EN: " + item.Text,
		})
	}
	return resp, nil
}

func seedKnownBasics(store *memStore, userID string) {
	for _, l := range []string{"ich", "das", "nicht", "sein", "wichtig"} {
		store.seed(userID, language.German, l, vocab.StatusKnown)
	}
}

func newTestService(store vocab.KnowledgeStore, engine translate.Engine, threshold int) *Service {
	return New(store, testResolver, engine, Options{
		FrequencyThreshold: threshold,
		TranslateTimeout:   time.Second,
	})
}

func TestProcessText_VerstehenScenario(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedKnownBasics(store, "u1")
	store.seed("u1", language.German, "verstehen", vocab.StatusLearning)

	engine := &scriptedEngine{}
	svc := newTestService(store, engine, 2)

	result, err := svc.ProcessText(context.Background(), ProcessRequest{
		UserID:         "u1",
		Language:       language.German,
		TargetLanguage: language.English,
		LearnerLevel:   vocab.LevelB1,
	}, germanSRT)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	chunk := result.Chunks[0]
	assert.Equal(t, chunks.StatusCompleted, chunk.Summary.Status)
	assert.False(t, chunk.Summary.PartialTranslationFailure)

	require.Len(t, chunk.Summary.BlockingWords, 1)
	word := chunk.Summary.BlockingWords[0]
	assert.Equal(t, "verstehen", word.Lemma)
	assert.Equal(t, 2, word.FrequencyInChunk)
	assert.Equal(t, []blocking.Context{
		{SegmentIndex: 1, SurfaceForm: "verstehe"},
		{SegmentIndex: 2, SurfaceForm: "Verstehen"},
	}, word.Contexts)

	// Both segments contain the blocking lemma, so both carry a
	// translation in the serialized output.
	assert.Contains(t, chunk.Subtitle, "EN: Ich verstehe das nicht.")
	assert.Contains(t, chunk.Subtitle, "EN: Verstehen ist wichtig.")
	assert.Equal(t, chunk.Subtitle, result.Subtitle)
	assert.True(t, result.Completed())
}

func TestProcessText_PartialTranslationFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedKnownBasics(store, "u1")
	store.seed("u1", language.German, "verstehen", vocab.StatusLearning)

	// Engine drops segment 2 on the floor.
	engine := &scriptedEngine{failFor: map[int]bool{2: true}}
	svc := newTestService(store, engine, 2)

	result, err := svc.ProcessText(context.Background(), ProcessRequest{
		UserID:         "u1",
		Language:       language.German,
		TargetLanguage: language.English,
		LearnerLevel:   vocab.LevelB1,
	}, germanSRT)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	chunk := result.Chunks[0]
	assert.Equal(t, chunks.StatusCompleted, chunk.Summary.Status)
	assert.True(t, chunk.Summary.PartialTranslationFailure)
	assert.Contains(t, chunk.Subtitle, "EN: Ich verstehe das nicht.")
	assert.Contains(t, chunk.Subtitle, "Verstehen ist wichtig.")
	assert.NotContains(t, chunk.Subtitle, "EN: Verstehen ist wichtig.")
}

func TestProcessText_NonBlockingUnknownNotTranslated(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedKnownBasics(store, "u1")
	// "verstehen" unknown but below the frequency bar and without a
	// difficulty band: not blocking, so nothing is translated.
	store.seed("u1", language.German, "verstehen", vocab.StatusLearning)

	engine := &scriptedEngine{}
	svc := newTestService(store, engine, 3)

	result, err := svc.ProcessText(context.Background(), ProcessRequest{
		UserID:         "u1",
		Language:       language.German,
		TargetLanguage: language.English,
		LearnerLevel:   vocab.LevelB1,
	}, germanSRT)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	chunk := result.Chunks[0]
	assert.Empty(t, chunk.Summary.BlockingWords)
	assert.Equal(t, 2, chunk.Summary.UnknownWordCount)
	assert.NotContains(t, chunk.Subtitle, "EN:")
	assert.Zero(t, engine.requests)
}

func TestProcessText_StoreFailureFailsChunk(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.failing = true
	svc := newTestService(store, &scriptedEngine{}, 2)

	result, err := svc.ProcessText(context.Background(), ProcessRequest{
		UserID:         "u1",
		Language:       language.German,
		TargetLanguage: language.English,
		LearnerLevel:   vocab.LevelB1,
	}, germanSRT)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	chunk := result.Chunks[0]
	assert.Equal(t, chunks.StatusFailed, chunk.Summary.Status)
	assert.Equal(t, "KnowledgeStoreUnavailable", chunk.Summary.Error)
	assert.False(t, result.Completed())
}

func TestProcessText_MalformedInput(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemStore(), &scriptedEngine{}, 2)
	svc.opts.StrictParsing = true

	_, err := svc.ProcessText(context.Background(), ProcessRequest{
		UserID:   "u1",
		Language: language.German,
	}, "1\nnot a timestamp\ntext\n\n")
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrMalformedSubtitle))
}

func TestProcessText_ComprehensionScore(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	seedKnownBasics(store, "u1")
	store.seed("u1", language.German, "verstehen", vocab.StatusLearning)

	svc := newTestService(store, &scriptedEngine{}, 2)
	result, err := svc.ProcessText(context.Background(), ProcessRequest{
		UserID:         "u1",
		Language:       language.German,
		TargetLanguage: language.English,
		LearnerLevel:   vocab.LevelB1,
	}, germanSRT)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	// Unique lemmas: ich, verstehen, das, nicht, sein, wichtig = 6.
	// Unknown unique: verstehen = 1.
	summary := result.Chunks[0].Summary
	assert.Equal(t, 2, summary.TotalSegments)
	assert.InDelta(t, 1.0-1.0/6.0, summary.ComprehensionScore, 1e-9)
}

func TestMarkKnown_NoStaleReadThroughCache(t *testing.T) {
	t.Parallel()

	backing := newMemStore()
	seedKnownBasics(backing, "u1")
	backing.seed("u1", language.German, "verstehen", vocab.StatusLearning)

	cached := vocab.NewCachedStore(backing, vocab.NewMemoryCache(time.Hour), time.Hour)
	svc := newTestService(cached, &scriptedEngine{}, 2)
	ctx := context.Background()

	req := ProcessRequest{
		UserID:         "u1",
		Language:       language.German,
		TargetLanguage: language.English,
		LearnerLevel:   vocab.LevelB1,
	}

	// First pass populates the cache with "verstehen" unknown.
	first, err := svc.ProcessText(ctx, req, germanSRT)
	require.NoError(t, err)
	require.Len(t, first.Chunks[0].Summary.BlockingWords, 1)

	require.NoError(t, svc.MarkKnown(ctx, "u1", language.German, "verstehen"))

	// An immediate re-run must see the new state, never the cached one.
	second, err := svc.ProcessText(ctx, req, germanSRT)
	require.NoError(t, err)
	assert.Empty(t, second.Chunks[0].Summary.BlockingWords)
	assert.Zero(t, second.Chunks[0].Summary.UnknownWordCount)

	require.NoError(t, svc.MarkUnknown(ctx, "u1", language.German, "verstehen"))
	third, err := svc.ProcessText(ctx, req, germanSRT)
	require.NoError(t, err)
	require.Len(t, third.Chunks[0].Summary.BlockingWords, 1)
}

func TestExecutor_WritesArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "episode.srt")
	require.NoError(t, os.WriteFile(path, []byte(germanSRT), 0o644))

	store := newMemStore()
	seedKnownBasics(store, "u1")
	store.seed("u1", language.German, "verstehen", vocab.StatusLearning)

	svc := newTestService(store, &scriptedEngine{}, 2)
	exec := svc.Executor()

	job := jobForPath(path)
	require.NoError(t, exec(context.Background(), job))

	filtered, err := os.ReadFile(filepath.Join(dir, "episode.filtered.srt"))
	require.NoError(t, err)
	assert.Contains(t, string(filtered), "EN: Ich verstehe das nicht.")

	summary, err := os.ReadFile(filepath.Join(dir, "episode.summary.json"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), `"chunk_index"`)
	assert.Contains(t, string(summary), `"verstehen"`)
}

func jobForPath(path string) *jobs.FilterJob {
	return &jobs.FilterJob{
		ID: "job-1",
		Payload: jobs.JobPayload{
			UserID:         "u1",
			SubtitleFile:   path,
			Language:       "de",
			TargetLanguage: "en",
			LearnerLevel:   "B1",
		},
	}
}

func TestRequestFromPayload_InvalidLevel(t *testing.T) {
	t.Parallel()

	job := jobForPath("/subs/x.srt")
	job.Payload.LearnerLevel = "Z9"
	_, err := requestFromPayload(job.Payload)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrValidation))
}
