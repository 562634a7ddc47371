package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	runID := uuid.New()

	info, err := store.Upload(ctx, runID, "invoice_rows.csv", "text/csv", strings.NewReader("a,b,c\n1,2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, "invoice_rows.csv", info.Name)
	assert.Equal(t, int64(12), info.Size)
	assert.Equal(t, "text/csv", info.ContentType)

	rc, got, err := store.Download(ctx, runID, info.ID)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b,c\n1,2,3\n", string(data))
	assert.Equal(t, info.ID, got.ID)

	files, err := store.List(ctx, runID)
	require.NoError(t, err)
	require.Len(t, files, 1)

	// Files from other runs stay invisible
	other, err := store.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, store.Delete(ctx, runID, info.ID))
	_, err = store.GetInfo(ctx, runID, info.ID)
	assert.Error(t, err)
}

func TestLocalStorageDuplicateName(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	runID := uuid.New()

	first, err := store.Upload(ctx, runID, "report.csv", "text/csv", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := store.Upload(ctx, runID, "report.csv", "text/csv", strings.NewReader("two"))
	require.NoError(t, err)

	// Both uploads survive under distinct stored names
	assert.NotEqual(t, first.Path, second.Path)

	rc, _, err := store.Download(ctx, runID, first.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	files, err := store.List(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestLocalStorageDeleteUnknownID(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), uuid.New(), uuid.New()))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"path separators", "a/b\\c.pdf", "a_b_c.pdf"},
		{"parent traversal", "..secret.pdf", "_secret.pdf"},
		{"windows reserved", `out:*?"<>|.csv`, "out_______.csv"},
		{"clean name", "fedex_2025-07.pdf", "fedex_2025-07.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.in))
		})
	}
}
