package library

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"github.com/lexisub/lexisub/internal/jobs"
	"github.com/lexisub/lexisub/pkg/file"
	"github.com/lexisub/lexisub/pkg/icron"
	"github.com/lexisub/lexisub/pkg/log"
)

// SourceConfig names one watched subtitle directory.
type SourceConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Defaults fills the job payload fields a bare subtitle file cannot
// provide.
type Defaults struct {
	UserID         string
	TargetLanguage language.Tag
	LearnerLevel   string
}

// Enqueuer is the job queue surface the scanner needs.
type Enqueuer interface {
	Enqueue(req jobs.EnqueueRequest) (*jobs.FilterJob, bool)
}

// Scanner watches subtitle directories and enqueues a filtering job
// for every subtitle file that appeared since the last scan. Queue
// dedupe keeps repeated sightings of the same file harmless.
type Scanner struct {
	sources  []SourceConfig
	queue    Enqueuer
	defaults Defaults

	mu       sync.Mutex
	lastScan time.Time
}

func NewScanner(sources []SourceConfig, queue Enqueuer, defaults Defaults) *Scanner {
	return &Scanner{
		sources:  sources,
		queue:    queue,
		defaults: defaults,
	}
}

// Scan walks every source for subtitle files modified after since and
// enqueues filtering jobs for them. Files already carrying a filtered
// sibling are skipped. Returns the number of newly enqueued jobs; an
// unreadable source is logged and skipped, not fatal.
func (s *Scanner) Scan(ctx context.Context, since time.Time) (int, error) {
	enqueued := 0
	for _, src := range s.sources {
		candidates, err := file.FindRecentAfter(src.Path, since, ".srt")
		if err != nil {
			log.Warn("Library source %s (%s) unreadable: %v", src.ID, src.Path, err)
			continue
		}
		for _, path := range candidates {
			if ctx.Err() != nil {
				return enqueued, ctx.Err()
			}
			if !isSubtitleCandidate(path) {
				continue
			}
			if hasFilteredSibling(path) {
				continue
			}
			job, created := s.queue.Enqueue(jobs.EnqueueRequest{
				Source:    "library:" + src.ID,
				DedupeKey: s.defaults.UserID + "|" + path,
				Payload: jobs.JobPayload{
					UserID:         s.defaults.UserID,
					SubtitleFile:   path,
					TargetLanguage: s.defaults.TargetLanguage.String(),
					LearnerLevel:   s.defaults.LearnerLevel,
				},
			})
			if created {
				enqueued++
				log.Info("Enqueued job %s for %s", job.ID, path)
			}
		}
	}
	return enqueued, nil
}

// Schedule registers the scanner on the cron runner. The first tick
// covers the window back to the expression's previous trigger, so
// files that arrived while the process was down are still picked up.
func (s *Scanner) Schedule(c *cron.Cron, expr string) error {
	info, err := icron.GetTriggerInfo(expr, time.Now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastScan = info.Last
	s.mu.Unlock()

	_, err = c.AddFunc(expr, func() {
		now := time.Now()
		s.mu.Lock()
		since := s.lastScan
		s.lastScan = now
		s.mu.Unlock()

		n, err := s.Scan(context.Background(), since)
		if err != nil {
			log.Warn("Library scan aborted: %v", err)
			return
		}
		if n > 0 {
			log.Info("Library scan enqueued %d job(s)", n)
		}
	})
	return err
}

func isSubtitleCandidate(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".srt") {
		return false
	}
	return !strings.HasSuffix(strings.ToLower(path), ".filtered.srt")
}

// hasFilteredSibling reports whether the scanner's output for this
// subtitle already exists.
func hasFilteredSibling(path string) bool {
	_, err := os.Stat(file.ReplaceExt(path, "filtered.srt"))
	return err == nil
}
