package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewImageStore(dir, "http://localhost:8080/static/images/")
	require.NoError(t, err)

	name, url, err := s.Save(strings.NewReader("fake jpeg bytes"), "Yard Photo.JPG")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(name, ".jpg"), "extension should be lowercased: %q", name)
	assert.NotContains(t, name, "Yard", "original filename must not leak into the stored name")
	assert.Equal(t, "http://localhost:8080/static/images/"+name, url)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "fake jpeg bytes", string(data))

	require.NoError(t, s.Remove(name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine.
	assert.NoError(t, s.Remove(name))
}

func TestSaveGeneratesDistinctNames(t *testing.T) {
	s, err := NewImageStore(t.TempDir(), "http://x")
	require.NoError(t, err)

	n1, _, err := s.Save(strings.NewReader("a"), "same.png")
	require.NoError(t, err)
	n2, _, err := s.Save(strings.NewReader("b"), "same.png")
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
}

func TestRemoveIgnoresPathTraversal(t *testing.T) {
	dir := t.TempDir()
	s, err := NewImageStore(filepath.Join(dir, "images"), "http://x")
	require.NoError(t, err)

	outside := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o644))

	require.NoError(t, s.Remove("../secret.txt"))
	_, err = os.Stat(outside)
	assert.NoError(t, err, "files outside the image dir must be untouched")
}
