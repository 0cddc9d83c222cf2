package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"github.com/lexisub/lexisub/internal/config"
	"github.com/lexisub/lexisub/internal/jobs"
	"github.com/lexisub/lexisub/internal/lemma"
	"github.com/lexisub/lexisub/internal/library"
	"github.com/lexisub/lexisub/internal/persistence"
	"github.com/lexisub/lexisub/internal/service"
	"github.com/lexisub/lexisub/internal/translate"
	"github.com/lexisub/lexisub/internal/vocab"
	"github.com/lexisub/lexisub/pkg/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	log.InitLogger(log.ParseLevel(cfg.System.LogLevel))

	var (
		filePath = flag.String("file", "", "subtitle file to process")
		userID   = flag.String("user", "", "learner user id")
		srcLang  = flag.String("lang", "", "subtitle language (default: detect from text)")
		wordlist = flag.String("wordlist", "", "CSV word list (lemma,level[,rank]) to import, then exit")
	)
	flag.Parse()

	store, err := persistence.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal("Failed to open database: %v", err)
	}
	defer store.Close()

	if *wordlist != "" {
		importWordList(store, *wordlist, *srcLang)
		return
	}

	cache := vocab.NewMemoryCache(cfg.Cache.TTL)
	knowledge := vocab.NewCachedStore(store, cache, cfg.Cache.TTL)

	resolver := lemma.NewRouter(lemma.NewStaticResolver(nil))
	if kagome, err := lemma.NewKagomeResolver(); err != nil {
		log.Warn("Japanese morphology unavailable: %v", err)
	} else {
		resolver.Register(language.Japanese, kagome)
	}

	var engine translate.Engine = translate.NoopEngine{}
	if cfg.Translate.Endpoint != "" {
		engine, err = translate.NewHTTPEngine(translate.HTTPEngineConfig{
			Endpoint: cfg.Translate.Endpoint,
			APIKey:   cfg.Translate.APIKey,
			Timeout:  cfg.Translate.Timeout,
		})
		if err != nil {
			log.Fatal("Failed to configure translation engine: %v", err)
		}
	} else {
		log.Warn("TRANSLATE_ENDPOINT not set; blocking segments keep their original text")
	}

	svc := service.New(knowledge, resolver, engine, service.Options{
		ChunkWindow:        cfg.Pipeline.ChunkWindow,
		FrequencyThreshold: cfg.Pipeline.FrequencyThreshold,
		Workers:            cfg.Pipeline.WorkerCount,
		TranslateTimeout:   cfg.Translate.Timeout,
		StrictParsing:      cfg.Pipeline.StrictParsing,
	})

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Cache.SweepCron, func() {
		if removed := cache.SweepExpired(time.Now()); removed > 0 {
			log.Debug("Cache sweep removed %d expired entries", removed)
		}
	}); err != nil {
		log.Fatal("Invalid CACHE_SWEEP_CRON: %v", err)
	}
	queue := jobs.NewQueue(cfg.Pipeline.WorkerCount, store)
	queue.Start(svc.Executor())
	defer queue.Stop()

	if cfg.Library.Dir != "" {
		scanner := library.NewScanner(
			[]library.SourceConfig{{ID: "library", Path: cfg.Library.Dir}},
			queue,
			library.Defaults{
				UserID:         cfg.Library.UserID,
				TargetLanguage: cfg.Pipeline.TargetLanguage,
				LearnerLevel:   cfg.Pipeline.LearnerLevel,
			},
		)
		if err := scanner.Schedule(scheduler, cfg.Library.ScanCron); err != nil {
			log.Fatal("Invalid LIBRARY_SCAN_CRON: %v", err)
		}
	}

	scheduler.Start()
	defer scheduler.Stop()

	if *filePath != "" {
		if *userID == "" {
			log.Fatal("-user is required with -file")
		}
		runOnce(queue, cfg, *filePath, *userID, *srcLang)
		return
	}

	// No file given: keep serving hydrated jobs until interrupted.
	log.Info("lexisub running, %d workers", cfg.Pipeline.WorkerCount)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("Shutting down")
}

// importWordList loads difficulty bands from a CSV file into the
// knowledge store for one language.
func importWordList(store *persistence.SQLiteStore, path, langCode string) {
	if langCode == "" {
		log.Fatal("-lang is required with -wordlist")
	}
	tag, err := language.Parse(langCode)
	if err != nil {
		log.Fatal("Invalid -lang %q: %v", langCode, err)
	}
	fh, err := os.Open(path)
	if err != nil {
		log.Fatal("Failed to open word list: %v", err)
	}
	defer fh.Close()

	n, err := vocab.LoadWordList(context.Background(), fh, tag, store)
	if err != nil {
		log.Fatal("Word list import failed after %d record(s): %v", n, err)
	}
	log.Info("Imported difficulty info for %d word(s) (%s)", n, tag)
}

// runOnce enqueues a single filtering job and waits for it to finish.
func runOnce(queue *jobs.Queue, cfg *config.Config, filePath, userID, srcLang string) {
	job, created := queue.Enqueue(jobs.EnqueueRequest{
		Source:    "cli",
		DedupeKey: userID + "|" + filePath,
		Payload: jobs.JobPayload{
			UserID:         userID,
			SubtitleFile:   filePath,
			Language:       srcLang,
			TargetLanguage: cfg.Pipeline.TargetLanguage.String(),
			LearnerLevel:   cfg.Pipeline.LearnerLevel,
		},
	})
	if !created {
		log.Info("Job already queued for %s", filePath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	for {
		current, ok := queue.Get(job.ID)
		if !ok {
			log.Fatal("Job %s disappeared from the queue", job.ID)
		}
		switch current.Status {
		case jobs.StatusSuccess:
			log.Info("Done: wrote filtered subtitle and summary next to %s", filePath)
			return
		case jobs.StatusFailed:
			log.Fatal("Job failed: %s", current.Error)
		}
		select {
		case <-ctx.Done():
			log.Fatal("Timed out waiting for job %s", job.ID)
		case <-time.After(200 * time.Millisecond):
		}
	}
}
