package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadsTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assistant.txt"), []byte("be brief\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Review.md"), []byte("review this"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.json"), []byte("{}"), 0o644))

	s, err := NewStore(dir, false)
	require.NoError(t, err)
	defer s.Close()

	txt, ok := s.Get("assistant")
	assert.True(t, ok)
	assert.Equal(t, "be brief", txt)

	// Names are case-insensitive.
	_, ok = s.Get("review")
	assert.True(t, ok)

	assert.Len(t, s.Names(), 2)
}

func TestStoreMissingDirIsEmpty(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "does-not-exist"), false)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Get("anything")
	assert.False(t, ok)
	assert.Empty(t, s.Names())
}

func TestStoreEmptyNameMisses(t *testing.T) {
	s, err := NewStore("", false)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Get("  ")
	assert.False(t, ok)
}
