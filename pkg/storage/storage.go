// Package storage archives batch outputs (reports and processed invoices)
// with local and S3 implementations.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo is one archived file as recorded in the run manifest.
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // stored name within the run directory
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for archive operations. Files are grouped
// by the batch run that produced them.
type Storage interface {
	// Upload archives a file under a run and returns its metadata
	Upload(ctx context.Context, runID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Download retrieves an archived file by its ID
	Download(ctx context.Context, runID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes an archived file by its ID
	Delete(ctx context.Context, runID uuid.UUID, fileID uuid.UUID) error

	// List returns all files archived for a run
	List(ctx context.Context, runID uuid.UUID) ([]*FileInfo, error)

	// GetInfo returns metadata for a file without downloading
	GetInfo(ctx context.Context, runID uuid.UUID, fileID uuid.UUID) (*FileInfo, error)
}

// StorageType selects the archive backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// Config holds archive configuration for both backends.
type Config struct {
	Type StorageType `yaml:"type" env:"ARCHIVE_TYPE" envDefault:"local"`

	// Local backend
	LocalPath string `yaml:"local_path" env:"ARCHIVE_DIR" envDefault:"./archive"`

	// S3 backend
	S3Bucket          string `yaml:"s3_bucket" env:"ARCHIVE_S3_BUCKET"`
	S3Region          string `yaml:"s3_region" env:"ARCHIVE_S3_REGION"`
	S3AccessKeyID     string `yaml:"s3_access_key_id" env:"ARCHIVE_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key" env:"ARCHIVE_S3_SECRET_ACCESS_KEY"`
	S3Endpoint        string `yaml:"s3_endpoint" env:"ARCHIVE_S3_ENDPOINT"` // S3-compatible services (MinIO, etc.)
}

// New picks the archive backend from configuration. Unknown types fall
// back to local.
func New(cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeS3:
		return NewS3Storage(cfg)
	case StorageTypeLocal:
		fallthrough
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}
