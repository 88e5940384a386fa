package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBlobRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.json")
	blob := NewFileBlob(path)

	_, ok, err := blob.Load()
	require.NoError(t, err)
	assert.False(t, ok, "fresh blob should report nothing stored")

	require.NoError(t, blob.Save([]byte(`[{"id":"1"}]`)))

	data, ok, err := blob.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, string(data))
}

func TestFileBlobSaveReplacesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	blob := NewFileBlob(path)

	require.NoError(t, blob.Save([]byte("a much longer first payload")))
	require.NoError(t, blob.Save([]byte("short")))

	data, ok, err := blob.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "short", string(data))

	// No temp files left behind by the atomic replace.
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".sessions-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
