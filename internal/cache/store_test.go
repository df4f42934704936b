package cache

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDownloader struct {
	data []byte
	err  error
	urls []string
}

func (m *mockDownloader) Download(ctx context.Context, url string, dest io.Writer) (int64, error) {
	m.urls = append(m.urls, url)
	if m.err != nil {
		// Write a little first so the temp file is not empty
		_, _ = dest.Write([]byte("partial"))
		return 0, m.err
	}
	n, err := dest.Write(m.data)
	return int64(n), err
}

func TestDiffPath(t *testing.T) {
	store := NewStore("cache")
	assert.Equal(t, filepath.Join("cache", "5.osc.gz"), store.DiffPath(5))
	assert.Equal(t, store.DiffPath(5), store.DiffPath(5))
	assert.NotEqual(t, store.DiffPath(5), store.DiffPath(6))
}

func TestDownload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "changes")
	store := NewStore(dir)
	d := &mockDownloader{data: []byte("gzipped-bytes")}

	dest := store.DiffPath(5)
	size, err := store.Download(context.Background(), d, "https://example.org/000/000/005.osc.gz", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(d.data)), size)
	assert.True(t, store.Exists(5))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, d.data, content)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should not remain after a successful download")
}

func TestDownload_Overwrite(t *testing.T) {
	store := NewStore(t.TempDir())
	dest := store.DiffPath(5)

	_, err := store.Download(context.Background(), &mockDownloader{data: []byte("first")}, "u", dest)
	require.NoError(t, err)
	_, err = store.Download(context.Background(), &mockDownloader{data: []byte("second")}, "u", dest)
	require.NoError(t, err)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestDownload_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	boom := errors.New("boom")

	_, err := store.Download(context.Background(), &mockDownloader{err: boom}, "u", store.DiffPath(9))
	require.ErrorIs(t, err, boom)
	assert.False(t, store.Exists(9))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
