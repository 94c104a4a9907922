package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// OpenAI extraction
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Extraction polling
	PollInterval time.Duration
	PollTimeout  time.Duration

	// Storage and artifacts
	DatabasePath string
	OutputDir    string
	ReportPath   string

	// Serve mode
	FinfactsAPIKey string
	MaxUploadBytes int64
	RunTTL         time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o"),

		PollInterval: envDuration("POLL_INTERVAL", 2*time.Second),
		PollTimeout:  envDuration("POLL_TIMEOUT", 5*time.Minute),

		DatabasePath: envOr("DATABASE_PATH", filepath.Join("gold", "financial_data.db")),
		OutputDir:    envOr("OUTPUT_DIR", "gold"),
		ReportPath:   envOr("REPORT_PATH", "output.txt"),

		FinfactsAPIKey: os.Getenv("FINFACTS_API_KEY"),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		RunTTL:         envDuration("RUN_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Minute
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

// ValidateServe checks the additional settings serve mode needs.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.FinfactsAPIKey == "" {
		return fmt.Errorf("FINFACTS_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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
