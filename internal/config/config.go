package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/lexisub/lexisub/pkg/log"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// Storage:
// - DB_PATH: SQLite database path (default: data/lexisub.db)
//
// Pipeline:
// - CHUNK_WINDOW_SECONDS: chunk time window in seconds (default: 300)
// - FREQUENCY_THRESHOLD: in-chunk repetitions before an unknown word blocks (default: 3)
// - LEARNER_LEVEL: default CEFR level for requests that omit one (default: B1)
// - TARGET_LANGUAGE: translation target language (default: en)
// - STRICT_PARSING: fail on malformed subtitle entries instead of skipping (default: false)
// - WORKER_COUNT: concurrent chunk workers (default: 4)
//
// Translation Engine:
// - TRANSLATE_ENDPOINT: translation service URL (required for translation)
// - TRANSLATE_API_KEY: bearer token for the translation service (optional)
// - TRANSLATE_TIMEOUT: request timeout in seconds (default: 30)
//
// Cache:
// - CACHE_TTL_SECONDS: vocabulary cache TTL in seconds (default: 3600)
// - CACHE_SWEEP_CRON: cron expression for expired-entry sweeps (default: @every 10m)
//
// Library:
// - LIBRARY_DIR: directory watched for new subtitle files (optional)
// - LIBRARY_SCAN_CRON: cron expression for library scans (default: @every 5m)
// - LIBRARY_USER: user id for jobs enqueued by the library scanner (default: default)
//
// System:
// - LOG_LEVEL: debug, info, warn or error (default: info)
type Config struct {
	Storage   StorageConfig   `json:"storage"`
	Pipeline  PipelineConfig  `json:"pipeline"`
	Translate TranslateConfig `json:"translate"`
	Cache     CacheConfig     `json:"cache"`
	Library   LibraryConfig   `json:"library"`
	System    SystemConfig    `json:"system"`
}

type StorageConfig struct {
	DBPath string `json:"db_path"`
}

type PipelineConfig struct {
	ChunkWindow        time.Duration `json:"chunk_window"`
	FrequencyThreshold int           `json:"frequency_threshold"`
	LearnerLevel       string        `json:"learner_level"`
	TargetLanguage     language.Tag  `json:"target_language"`
	StrictParsing      bool          `json:"strict_parsing"`
	WorkerCount        int           `json:"worker_count"`
}

// TranslateConfig holds the configuration for the translation engine
// client.
type TranslateConfig struct {
	Endpoint string        `json:"endpoint"`
	APIKey   string        `json:"api_key"`
	Timeout  time.Duration `json:"timeout"`
}

type CacheConfig struct {
	TTL       time.Duration `json:"ttl"`
	SweepCron string        `json:"sweep_cron"`
}

// LibraryConfig holds the watched-directory configuration for the
// background subtitle scanner.
type LibraryConfig struct {
	Dir      string `json:"dir"`
	ScanCron string `json:"scan_cron"`
	UserID   string `json:"user_id"`
}

type SystemConfig struct {
	LogLevel string `json:"log_level"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from
// environment variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Storage: StorageConfig{
			DBPath: getEnvString("DB_PATH", "data/lexisub.db"),
		},
		Pipeline: PipelineConfig{
			ChunkWindow:        time.Duration(getEnvInt("CHUNK_WINDOW_SECONDS", 300)) * time.Second,
			FrequencyThreshold: getEnvInt("FREQUENCY_THRESHOLD", 3),
			LearnerLevel:       getEnvString("LEARNER_LEVEL", "B1"),
			StrictParsing:      getEnvBool("STRICT_PARSING", false),
			WorkerCount:        getEnvInt("WORKER_COUNT", 4),
		},
		Translate: TranslateConfig{
			Endpoint: getEnvString("TRANSLATE_ENDPOINT", ""),
			APIKey:   getEnvString("TRANSLATE_API_KEY", ""),
			Timeout:  time.Duration(getEnvInt("TRANSLATE_TIMEOUT", 30)) * time.Second,
		},
		Cache: CacheConfig{
			TTL:       time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
			SweepCron: getEnvString("CACHE_SWEEP_CRON", "@every 10m"),
		},
		Library: LibraryConfig{
			Dir:      getEnvString("LIBRARY_DIR", ""),
			ScanCron: getEnvString("LIBRARY_SCAN_CRON", "@every 5m"),
			UserID:   getEnvString("LIBRARY_USER", "default"),
		},
		System: SystemConfig{
			LogLevel: getEnvString("LOG_LEVEL", "info"),
		},
	}

	target, err := language.Parse(getEnvString("TARGET_LANGUAGE", "en"))
	if err != nil {
		return nil, fmt.Errorf("invalid TARGET_LANGUAGE: %w", err)
	}
	config.Pipeline.TargetLanguage = target

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %+v", config)
	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Storage.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Pipeline.ChunkWindow <= 0 {
		return fmt.Errorf("CHUNK_WINDOW_SECONDS must be positive")
	}
	if c.Pipeline.FrequencyThreshold <= 0 {
		return fmt.Errorf("FREQUENCY_THRESHOLD must be positive")
	}
	if c.Pipeline.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
