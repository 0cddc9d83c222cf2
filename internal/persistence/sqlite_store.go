package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	_ "modernc.org/sqlite"

	"github.com/lexisub/lexisub/internal/jobs"
	"github.com/lexisub/lexisub/internal/vocab"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore backs both the job queue and the vocabulary knowledge
// store. The vocabulary upsert is atomic per key, so concurrent first
// sights of a lemma never create duplicate rows.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

const vocabColumns = `user_id, language, lemma, status, confidence, difficulty, frequency_rank, created_at, updated_at`

func scanEntry(row *sql.Row) (*vocab.Entry, error) {
	var entry vocab.Entry
	var langCode string
	var status string
	var difficulty int
	if err := row.Scan(
		&entry.UserID,
		&langCode,
		&entry.Lemma,
		&status,
		&entry.Confidence,
		&difficulty,
		&entry.FrequencyRank,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	entry.Language = language.Make(langCode)
	entry.Status = vocab.Status(status)
	entry.Difficulty = vocab.Level(difficulty)
	return &entry, nil
}

func (s *SQLiteStore) Get(ctx context.Context, userID string, lang language.Tag, lemma string) (*vocab.Entry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+vocabColumns+` FROM vocabulary_entries
		 WHERE user_id = ? AND language = ? AND lemma = ?`,
		userID,
		lang.String(),
		lemma,
	)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vocab.ErrStoreUnavailable, err)
	}
	return entry, nil
}

// Upsert records a first sight of a lemma. The no-op conflict update
// makes RETURNING yield the existing row, so a lost race still returns
// the winner's entry.
func (s *SQLiteStore) Upsert(ctx context.Context, userID string, lang language.Tag, lemma string, defaultStatus vocab.Status) (*vocab.Entry, error) {
	now := time.Now().UTC()
	row := s.db.QueryRowContext(
		ctx,
		`INSERT INTO vocabulary_entries (`+vocabColumns+`)
		 VALUES (?, ?, ?, ?, 0, 0, 0, ?, ?)
		 ON CONFLICT(user_id, language, lemma) DO UPDATE SET
			updated_at = vocabulary_entries.updated_at
		 RETURNING `+vocabColumns,
		userID,
		lang.String(),
		lemma,
		string(defaultStatus),
		now,
		now,
	)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vocab.ErrStoreUnavailable, err)
	}
	return entry, nil
}

func (s *SQLiteStore) SetStatus(ctx context.Context, userID string, lang language.Tag, lemma string, status vocab.Status) (*vocab.Entry, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	now := time.Now().UTC()
	row := s.db.QueryRowContext(
		ctx,
		`INSERT INTO vocabulary_entries (`+vocabColumns+`)
		 VALUES (?, ?, ?, ?, 0, 0, 0, ?, ?)
		 ON CONFLICT(user_id, language, lemma) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
		 RETURNING `+vocabColumns,
		userID,
		lang.String(),
		lemma,
		string(status),
		now,
		now,
	)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vocab.ErrStoreUnavailable, err)
	}
	return entry, nil
}

// SetWordInfo updates difficulty band and corpus frequency rank for a
// lemma across all users of a language. Used by vocabulary imports.
func (s *SQLiteStore) SetWordInfo(ctx context.Context, lang language.Tag, lemma string, difficulty vocab.Level, frequencyRank int) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE vocabulary_entries
		 SET difficulty = ?, frequency_rank = ?, updated_at = ?
		 WHERE language = ? AND lemma = ?`,
		int(difficulty),
		frequencyRank,
		time.Now().UTC(),
		lang.String(),
		lemma,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", vocab.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLiteStore) LoadJobs(ctx context.Context) ([]*jobs.FilterJob, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, source, dedupe_key, user_id, subtitle_file, language, target_language, learner_level, status, error, created_at, updated_at
		 FROM jobs
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*jobs.FilterJob, 0)
	for rows.Next() {
		var item jobs.FilterJob
		var status string
		if err := rows.Scan(
			&item.ID,
			&item.Source,
			&item.DedupeKey,
			&item.Payload.UserID,
			&item.Payload.SubtitleFile,
			&item.Payload.Language,
			&item.Payload.TargetLanguage,
			&item.Payload.LearnerLevel,
			&status,
			&item.Error,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		item.Status = jobs.Status(status)
		ret = append(ret, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) UpsertJob(ctx context.Context, job *jobs.FilterJob) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
			id, source, dedupe_key, user_id, subtitle_file, language, target_language, learner_level, status, error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source=excluded.source,
			dedupe_key=excluded.dedupe_key,
			user_id=excluded.user_id,
			subtitle_file=excluded.subtitle_file,
			language=excluded.language,
			target_language=excluded.target_language,
			learner_level=excluded.learner_level,
			status=excluded.status,
			error=excluded.error,
			updated_at=excluded.updated_at`,
		job.ID,
		job.Source,
		job.DedupeKey,
		job.Payload.UserID,
		job.Payload.SubtitleFile,
		job.Payload.Language,
		job.Payload.TargetLanguage,
		job.Payload.LearnerLevel,
		string(job.Status),
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, jobID)
	return err
}

var (
	_ vocab.KnowledgeStore = (*SQLiteStore)(nil)
	_ jobs.Store           = (*SQLiteStore)(nil)
)
