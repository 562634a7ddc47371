package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Ingest        IngestConfig
	OCR           OCRConfig
	Watch         WatchConfig
	Archive       ArchiveConfig
	Notify        NotifyConfig
	Observability ObservabilityConfig
}

// IngestConfig locates the invoice inbox and its outputs.
type IngestConfig struct {
	// InboxPath is a single PDF or a directory of PDFs.
	InboxPath     string
	ClientMapPath string
	OutputDir     string
}

// OCRConfig controls the scanned-document fallback.
type OCRConfig struct {
	Enabled    bool
	Language   string
	DPI        int
	Rasterizer string
}

// WatchConfig drives the scheduled re-run over the inbox.
type WatchConfig struct {
	Schedule string
}

// ArchiveConfig controls report archiving after a run.
type ArchiveConfig struct {
	Enabled    bool
	Type       string // "local" or "s3"
	Dir        string
	S3Bucket   string
	S3Region   string
	S3Endpoint string
}

// NotifyConfig carries the run-summary email settings.
type NotifyConfig struct {
	ResendAPIKey string
	From         string
	To           string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables. A .env file in
// the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Ingest: IngestConfig{
			InboxPath:     getEnv("INBOX_PATH", "./inbox"),
			ClientMapPath: getEnv("CLIENT_MAP_PATH", ""),
			OutputDir:     getEnv("OUTPUT_DIR", "./out"),
		},
		OCR: OCRConfig{
			Enabled:    getEnvAsBool("OCR_ENABLED", true),
			Language:   getEnv("OCR_LANGUAGE", "eng"),
			DPI:        getEnvAsInt("OCR_DPI", 300),
			Rasterizer: getEnv("OCR_RASTERIZER", "pdftoppm"),
		},
		Watch: WatchConfig{
			Schedule: getEnv("WATCH_SCHEDULE", "0 7 * * *"),
		},
		Archive: ArchiveConfig{
			Enabled:    getEnvAsBool("ARCHIVE_ENABLED", false),
			Type:       getEnv("ARCHIVE_TYPE", "local"),
			Dir:        getEnv("ARCHIVE_DIR", "./archive"),
			S3Bucket:   getEnv("ARCHIVE_S3_BUCKET", ""),
			S3Region:   getEnv("ARCHIVE_S3_REGION", ""),
			S3Endpoint: getEnv("ARCHIVE_S3_ENDPOINT", ""),
		},
		Notify: NotifyConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("NOTIFY_FROM", "invoice-runner@localhost"),
			To:           getEnv("NOTIFY_TO", ""),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	if cfg.Notify.To != "" && cfg.Notify.ResendAPIKey == "" {
		return nil, errors.New("RESEND_API_KEY is required when NOTIFY_TO is set")
	}

	if cfg.Watch.Schedule == "" {
		return nil, errors.New("WATCH_SCHEDULE must not be empty")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
