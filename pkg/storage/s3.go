package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// S3Storage implements Storage using Amazon S3 or S3-compatible services
// TODO: Implement using aws-sdk-go-v2
type S3Storage struct {
	bucket   string
	region   string
	endpoint string
	// client *s3.Client // Uncomment when implementing
}

// NewS3Storage creates a new S3 archive instance. Bucket and region are
// required.
// TODO: Initialize S3 client using aws-sdk-go-v2
func NewS3Storage(cfg *Config) (*S3Storage, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	if cfg.S3Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	return &S3Storage{
		bucket:   cfg.S3Bucket,
		region:   cfg.S3Region,
		endpoint: cfg.S3Endpoint,
	}, nil
}

// Upload archives a file in S3 under runID/fileID/filename
func (s *S3Storage) Upload(ctx context.Context, runID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	// TODO: PutObject with key runID/fileID/filename
	return nil, fmt.Errorf("S3 archive not implemented - please set ARCHIVE_TYPE=local or implement S3Storage")
}

// Download retrieves a file from S3 by its ID
func (s *S3Storage) Download(ctx context.Context, runID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	return nil, nil, fmt.Errorf("S3 archive not implemented")
}

// Delete removes a file from S3 by its ID
func (s *S3Storage) Delete(ctx context.Context, runID uuid.UUID, fileID uuid.UUID) error {
	return fmt.Errorf("S3 archive not implemented")
}

// List returns all files for a run from S3
func (s *S3Storage) List(ctx context.Context, runID uuid.UUID) ([]*FileInfo, error) {
	// TODO: ListObjectsV2 with prefix runID/
	return nil, fmt.Errorf("S3 archive not implemented")
}

// GetInfo returns metadata for a file without downloading
func (s *S3Storage) GetInfo(ctx context.Context, runID uuid.UUID, fileID uuid.UUID) (*FileInfo, error) {
	return nil, fmt.Errorf("S3 archive not implemented")
}
