package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbot/internal/roster"
)

func TestPhotoStoreSave(t *testing.T) {
	store, err := NewPhotoStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save("Ada Lovelace", ".jpg", bytes.NewReader([]byte("fake-jpeg")))
	require.NoError(t, err)

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "Ada_Lovelace_"), "got %q", base)
	assert.True(t, strings.HasSuffix(base, ".jpg"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fake-jpeg", string(data))
}

func TestPhotoStoreUniqueNames(t *testing.T) {
	store, err := NewPhotoStore(t.TempDir())
	require.NoError(t, err)

	a, err := store.Save("Same Name", "jpg", bytes.NewReader([]byte("a")))
	require.NoError(t, err)
	b, err := store.Save("Same Name", "jpg", bytes.NewReader([]byte("b")))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPhotoStoreRejectsExtension(t *testing.T) {
	store, err := NewPhotoStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("x", ".gif", bytes.NewReader(nil))
	assert.ErrorIs(t, err, roster.ErrInvalidInput)

	_, err = store.Save("x", "", bytes.NewReader(nil))
	assert.ErrorIs(t, err, roster.ErrInvalidInput)
}

func TestPhotoStoreRejectsOversized(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPhotoStore(dir)
	require.NoError(t, err)

	big := bytes.NewReader(make([]byte, MaxPhotoSize+1))
	_, err = store.Save("big", ".png", big)
	assert.ErrorIs(t, err, roster.ErrInvalidInput)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file must be removed")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Ada_Lovelace", sanitizeFilename("Ada Lovelace"))
	assert.Equal(t, "a_b_c", sanitizeFilename("a/b\\c"))
	assert.Equal(t, "photo", sanitizeFilename("   "))
	assert.Equal(t, "______", sanitizeFilename("../../"))
}
