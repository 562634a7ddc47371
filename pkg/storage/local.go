package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const manifestName = "manifest.json"

// LocalStorage archives run outputs under basePath/<runID>/ with a
// manifest.json per run recording what was stored. A run archives a
// handful of reports and runs never interleave, so a single manifest
// per run replaces per-file metadata.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the archive root if it does not exist.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive root: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) runDir(runID uuid.UUID) string {
	return filepath.Join(s.basePath, runID.String())
}

// readManifest loads the run manifest. A missing manifest means nothing
// was archived for the run.
func (s *LocalStorage) readManifest(runID uuid.UUID) ([]*FileInfo, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var entries []*FileInfo
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return entries, nil
}

func (s *LocalStorage) writeManifest(runID uuid.UUID, entries []*FileInfo) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.runDir(runID), manifestName), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Upload archives one file under the run directory and appends it to
// the run manifest.
func (s *LocalStorage) Upload(ctx context.Context, runID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	dir := s.runDir(runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	entries, err := s.readManifest(runID)
	if err != nil {
		return nil, err
	}

	fileID := uuid.New()
	stored := sanitizeFilename(filename)
	for _, e := range entries {
		if e.Path == stored {
			// Same report name archived twice in one run. Keep both.
			stored = fileID.String()[:8] + "_" + stored
			break
		}
	}

	filePath := filepath.Join(dir, stored)
	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive file: %w", err)
	}

	size, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write archive file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Path:        stored,
		CreatedAt:   time.Now(),
	}

	if err := s.writeManifest(runID, append(entries, info)); err != nil {
		os.Remove(filePath)
		return nil, err
	}
	return info, nil
}

// Download opens an archived file by its ID.
func (s *LocalStorage) Download(ctx context.Context, runID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.GetInfo(ctx, runID, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.runDir(runID), info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	return f, info, nil
}

// Delete removes an archived file and its manifest entry. Deleting an
// ID the manifest does not know is a no-op.
func (s *LocalStorage) Delete(ctx context.Context, runID uuid.UUID, fileID uuid.UUID) error {
	entries, err := s.readManifest(runID)
	if err != nil {
		return err
	}

	kept := make([]*FileInfo, 0, len(entries))
	var target *FileInfo
	for _, e := range entries {
		if e.ID == fileID {
			target = e
			continue
		}
		kept = append(kept, e)
	}
	if target == nil {
		return nil
	}

	if err := os.Remove(filepath.Join(s.runDir(runID), target.Path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete archive file: %w", err)
	}
	return s.writeManifest(runID, kept)
}

// List returns everything archived for a run, in upload order.
func (s *LocalStorage) List(ctx context.Context, runID uuid.UUID) ([]*FileInfo, error) {
	entries, err := s.readManifest(runID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*FileInfo{}
	}
	return entries, nil
}

// GetInfo returns manifest metadata for one archived file.
func (s *LocalStorage) GetInfo(ctx context.Context, runID uuid.UUID, fileID uuid.UUID) (*FileInfo, error) {
	entries, err := s.readManifest(runID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == fileID {
			return e, nil
		}
	}
	return nil, fmt.Errorf("file not found: %s", fileID)
}

// sanitizeFilename replaces characters that would escape the run
// directory or break on Windows shares.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
