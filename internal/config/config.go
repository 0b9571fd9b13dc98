package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/docsplit/internal/chunker"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Layout analysis service
	LayoutEndpoint     string
	LayoutAPIKey       string
	LayoutModel        string
	LayoutPollInterval time.Duration

	// Search index
	SearchEndpoint string
	SearchAPIKey   string
	SearchIndex    string
	IndexBatchSize int

	// Blob storage
	StorageBucket   string
	StorageRegion   string
	StorageEndpoint string
	StorageDir      string

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentStore int

	// Upload limits
	MaxUploadBytes int64

	// Splitting
	MaxSectionLength    int
	SentenceSearchLimit int
	OverlapPercent      int
	MaxTokensPerSection int
	EncodingModel       string
	Tokenizer           string

	// Reconstruction policy
	SkipInvalidPages bool

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCSPLIT_API_KEY"),

		LayoutEndpoint:     os.Getenv("LAYOUT_ENDPOINT"),
		LayoutAPIKey:       os.Getenv("LAYOUT_API_KEY"),
		LayoutModel:        envOr("LAYOUT_MODEL", "prebuilt-layout"),
		LayoutPollInterval: envDuration("LAYOUT_POLL_INTERVAL", 2*time.Second),

		SearchEndpoint: os.Getenv("SEARCH_ENDPOINT"),
		SearchAPIKey:   os.Getenv("SEARCH_API_KEY"),
		SearchIndex:    envOr("SEARCH_INDEX", "documents"),
		IndexBatchSize: envInt("INDEX_BATCH_SIZE", 1000),

		StorageBucket:   os.Getenv("STORAGE_BUCKET"),
		StorageRegion:   envOr("STORAGE_REGION", "us-east-1"),
		StorageEndpoint: os.Getenv("STORAGE_ENDPOINT"),
		StorageDir:      os.Getenv("STORAGE_DIR"),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentStore: envInt("MAX_CONCURRENT_STORE", 10),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		MaxSectionLength:    envInt("MAX_SECTION_LENGTH", 1000),
		SentenceSearchLimit: envInt("SENTENCE_SEARCH_LIMIT", 100),
		OverlapPercent:      envInt("OVERLAP_PERCENT", 10),
		MaxTokensPerSection: envInt("MAX_TOKENS_PER_SECTION", 500),
		EncodingModel:       envOr("ENCODING_MODEL", chunker.DefaultEncodingModel),
		Tokenizer:           envOr("TOKENIZER", "tiktoken"),

		SkipInvalidPages: envBool("SKIP_INVALID_PAGES", false),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentStore <= 0 {
		cfg.MaxConcurrentStore = 10
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.IndexBatchSize <= 0 || cfg.IndexBatchSize > 1000 {
		cfg.IndexBatchSize = 1000
	}
	if cfg.LayoutPollInterval <= 0 {
		cfg.LayoutPollInterval = 2 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks settings shared by every binary.
func (c Config) Validate() error {
	if c.LayoutEndpoint != "" && c.LayoutAPIKey == "" {
		return fmt.Errorf("LAYOUT_API_KEY is required when LAYOUT_ENDPOINT is set")
	}
	if c.SearchEndpoint != "" && c.SearchAPIKey == "" {
		return fmt.Errorf("SEARCH_API_KEY is required when SEARCH_ENDPOINT is set")
	}
	if c.MaxSectionLength <= 0 {
		return fmt.Errorf("MAX_SECTION_LENGTH must be positive, got %d", c.MaxSectionLength)
	}
	if c.SentenceSearchLimit <= 0 {
		return fmt.Errorf("SENTENCE_SEARCH_LIMIT must be positive, got %d", c.SentenceSearchLimit)
	}
	if c.OverlapPercent <= 0 || c.OverlapPercent > chunker.MaxOverlapPercent {
		return fmt.Errorf("OVERLAP_PERCENT must be between 1 and %d, got %d", chunker.MaxOverlapPercent, c.OverlapPercent)
	}
	if c.MaxTokensPerSection <= 0 {
		return fmt.Errorf("MAX_TOKENS_PER_SECTION must be positive, got %d", c.MaxTokensPerSection)
	}
	switch c.Tokenizer {
	case "tiktoken", "estimate":
	default:
		return fmt.Errorf("TOKENIZER must be tiktoken or estimate, got %q", c.Tokenizer)
	}
	return nil
}

// ValidateServer additionally requires the settings the HTTP service needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("DOCSPLIT_API_KEY is required")
	}
	return nil
}

// Splitter returns the section splitter settings.
func (c Config) Splitter() chunker.Config {
	return chunker.Config{
		MaxSectionLength:    c.MaxSectionLength,
		SentenceSearchLimit: c.SentenceSearchLimit,
		OverlapPercent:      c.OverlapPercent,
		MaxTokensPerSection: c.MaxTokensPerSection,
	}
}

// NewTokenizer builds the configured tokenizer.
func (c Config) NewTokenizer() (chunker.Tokenizer, error) {
	if c.Tokenizer == "estimate" {
		return chunker.EstimateTokenizer{}, nil
	}
	return chunker.NewTiktokenTokenizer(c.EncodingModel)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
