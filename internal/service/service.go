package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/lexisub/lexisub/internal/blocking"
	"github.com/lexisub/lexisub/internal/chunks"
	"github.com/lexisub/lexisub/internal/jobs"
	"github.com/lexisub/lexisub/internal/lemma"
	"github.com/lexisub/lexisub/internal/subtitle"
	"github.com/lexisub/lexisub/internal/translate"
	"github.com/lexisub/lexisub/internal/vocab"
	"github.com/lexisub/lexisub/internal/wordfilter"
	"github.com/lexisub/lexisub/pkg/file"
	"github.com/lexisub/lexisub/pkg/log"
)

// Options tunes the pipeline. Zero values fall back to defaults.
type Options struct {
	ChunkWindow        time.Duration
	FrequencyThreshold int
	Workers            int
	TranslateTimeout   time.Duration
	StrictParsing      bool
}

const defaultWorkers = 4

// Service runs the subtitle filtering pipeline: parse, classify,
// detect blocking words, selectively translate, serialize — chunk by
// chunk.
type Service struct {
	store    vocab.KnowledgeStore
	filter   *wordfilter.Filter
	detector *blocking.Detector
	applier  *translate.Applier
	opts     Options
}

func New(store vocab.KnowledgeStore, resolver lemma.Resolver, engine translate.Engine, opts Options) *Service {
	if opts.ChunkWindow <= 0 {
		opts.ChunkWindow = chunks.DefaultWindow
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Service{
		store:    store,
		filter:   wordfilter.New(store, resolver),
		detector: blocking.NewDetector(opts.FrequencyThreshold),
		applier:  translate.NewApplier(engine, opts.TranslateTimeout),
		opts:     opts,
	}
}

// ProcessFile reads a subtitle file from disk and runs the pipeline.
func (s *Service) ProcessFile(ctx context.Context, req ProcessRequest) (*JobResult, error) {
	if req.SubtitlePath == "" {
		return nil, NewError(ErrValidation, "subtitle path is required")
	}
	data, err := os.ReadFile(req.SubtitlePath)
	if err != nil {
		return nil, WrapError(err, ErrValidation, "read subtitle file").WithContext("path", req.SubtitlePath)
	}
	return s.ProcessText(ctx, req, string(data))
}

// ProcessText runs the pipeline over raw subtitle text. Chunks fail
// independently; the returned JobResult carries a per-chunk status and
// only a whole-input problem (unparseable text, bad request) returns
// an error.
func (s *Service) ProcessText(ctx context.Context, req ProcessRequest, text string) (*JobResult, error) {
	if req.UserID == "" {
		return nil, NewError(ErrValidation, "user id is required")
	}

	file, err := subtitle.ParseString(text, s.opts.StrictParsing)
	if err != nil {
		return nil, WrapError(err, ErrMalformedSubtitle, "parse subtitle").WithContext("path", req.SubtitlePath)
	}

	lang := req.Language
	if lang == language.Und {
		lang = file.Language
	}

	result := &JobResult{
		UserID:    req.UserID,
		Language:  lang,
		Warnings:  file.Warnings,
		StartedAt: time.Now().UTC(),
	}

	parts := chunks.Partition(file.Segments, s.opts.ChunkWindow)
	coordinator := chunks.NewCoordinator[ChunkOutput](s.opts.Workers)
	coordinator.Run(ctx, parts, func(ctx context.Context, chunk chunks.Chunk) (ChunkOutput, bool, error) {
		return s.processChunk(ctx, chunk, req.UserID, lang, req.TargetLanguage, req.LearnerLevel)
	})

	var completed []string
	for _, r := range coordinator.Results() {
		chunkResult := ChunkResult{Summary: ChunkSummary{ChunkIndex: r.ChunkIndex, Status: r.Status}}
		switch r.Status {
		case chunks.StatusCompleted:
			chunkResult.Subtitle = r.Output.Subtitle
			chunkResult.Summary = r.Output.Summary
			chunkResult.Summary.Status = r.Status
			chunkResult.Summary.PartialTranslationFailure = r.PartialTranslationFailure
			completed = append(completed, r.Output.Subtitle)
		default:
			if r.Err != nil {
				chunkResult.Summary.Error = Classify(r.Err).String()
			}
		}
		result.Chunks = append(result.Chunks, chunkResult)
	}
	result.Subtitle = strings.Join(completed, "")
	result.FinishedAt = time.Now().UTC()
	return result, nil
}

// processChunk runs every segment of the chunk through all pipeline
// stages in ascending index order. A knowledge store failure aborts
// the chunk; translation failures only degrade it.
func (s *Service) processChunk(ctx context.Context, chunk chunks.Chunk, userID string, lang, target language.Tag, level vocab.Level) (ChunkOutput, bool, error) {
	classified := make([]wordfilter.SegmentTokens, 0, len(chunk.Segments))
	for _, seg := range chunk.Segments {
		tokens, err := s.filter.ClassifySegment(ctx, seg, userID, lang)
		if err != nil {
			return ChunkOutput{}, false, WrapError(err, Classify(err), "classify segment").
				WithContext("chunk", chunk.Index).
				WithContext("segment", seg.Index)
		}
		classified = append(classified, tokens)
	}

	words := s.detector.Detect(classified, level)
	selected := translate.SelectSegments(classified, blocking.Lemmas(words))

	partial, err := s.applier.Apply(ctx, chunk.Segments, selected, lang, target)
	if err != nil {
		return ChunkOutput{}, false, err
	}

	return ChunkOutput{
		Subtitle: subtitle.SerializeString(chunk.Segments),
		Summary:  summarize(chunk.Index, classified, words),
	}, partial, nil
}

// summarize computes the per-chunk statistics. The comprehension score
// is the share of unique lemmas the learner already knows.
func summarize(chunkIndex int, classified []wordfilter.SegmentTokens, words []blocking.Word) ChunkSummary {
	unknownCount := 0
	uniqueTotal := make(map[string]struct{})
	uniqueUnknown := make(map[string]struct{})
	for _, seg := range classified {
		for _, tok := range seg.Tokens {
			switch tok.Class {
			case wordfilter.ClassUnknown:
				unknownCount++
				uniqueTotal[tok.Lemma] = struct{}{}
				uniqueUnknown[tok.Lemma] = struct{}{}
			case wordfilter.ClassKnown:
				uniqueTotal[tok.Lemma] = struct{}{}
			}
		}
	}

	score := 1.0
	if len(uniqueTotal) > 0 {
		score = 1.0 - float64(len(uniqueUnknown))/float64(len(uniqueTotal))
	}

	return ChunkSummary{
		ChunkIndex:         chunkIndex,
		TotalSegments:      len(classified),
		UnknownWordCount:   unknownCount,
		ComprehensionScore: score,
		BlockingWords:      words,
	}
}

// MarkKnown records that the learner knows a lemma. The knowledge
// store (and its cache wrapper) must acknowledge the write before this
// returns, so a follow-up classification never sees the stale state.
func (s *Service) MarkKnown(ctx context.Context, userID string, lang language.Tag, lemmaStr string) error {
	if _, err := s.store.SetStatus(ctx, userID, lang, lemmaStr, vocab.StatusKnown); err != nil {
		return WrapError(err, Classify(err), "mark known").WithContext("lemma", lemmaStr)
	}
	return nil
}

// MarkUnknown returns a lemma to the learning set.
func (s *Service) MarkUnknown(ctx context.Context, userID string, lang language.Tag, lemmaStr string) error {
	if _, err := s.store.SetStatus(ctx, userID, lang, lemmaStr, vocab.StatusLearning); err != nil {
		return WrapError(err, Classify(err), "mark unknown").WithContext("lemma", lemmaStr)
	}
	return nil
}

// Executor adapts the service to the job queue: it reads the payload's
// subtitle file, runs the pipeline and writes the filtered subtitle
// plus the summary next to the input.
func (s *Service) Executor() jobs.Executor {
	return func(ctx context.Context, job *jobs.FilterJob) error {
		req, err := requestFromPayload(job.Payload)
		if err != nil {
			return err
		}

		result, err := s.ProcessFile(ctx, req)
		if err != nil {
			return err
		}

		filteredPath := file.ReplaceExt(job.Payload.SubtitleFile, "filtered.srt")
		if err := os.WriteFile(filteredPath, []byte(result.Subtitle), 0o644); err != nil {
			return WrapError(err, ErrValidation, "write filtered subtitle")
		}

		summaries := make([]ChunkSummary, 0, len(result.Chunks))
		for _, c := range result.Chunks {
			summaries = append(summaries, c.Summary)
		}
		encoded, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		if err := os.WriteFile(file.ReplaceExt(job.Payload.SubtitleFile, "summary.json"), encoded, 0o644); err != nil {
			return WrapError(err, ErrValidation, "write summary")
		}

		if !result.Completed() {
			log.Warn("Job %s finished with failed chunks for %s", job.ID, job.Payload.SubtitleFile)
		}
		return nil
	}
}

func requestFromPayload(payload jobs.JobPayload) (ProcessRequest, error) {
	req := ProcessRequest{
		UserID:       payload.UserID,
		SubtitlePath: payload.SubtitleFile,
	}
	if payload.Language != "" {
		lang, err := language.Parse(payload.Language)
		if err != nil {
			return ProcessRequest{}, WrapError(err, ErrValidation, "parse source language")
		}
		req.Language = lang
	}
	if payload.TargetLanguage != "" {
		target, err := language.Parse(payload.TargetLanguage)
		if err != nil {
			return ProcessRequest{}, WrapError(err, ErrValidation, "parse target language")
		}
		req.TargetLanguage = target
	}
	if payload.LearnerLevel != "" {
		level, err := vocab.ParseCEFRLevel(payload.LearnerLevel)
		if err != nil {
			return ProcessRequest{}, WrapError(err, ErrValidation, "parse learner level")
		}
		req.LearnerLevel = level
	}
	return req, nil
}
