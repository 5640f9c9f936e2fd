package scratch

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	s, err := NewScope(filepath.Join(dir, "nested"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	input, err := s.Save("input.mp4", strings.NewReader("not really a video"))
	require.NoError(t, err)
	assert.FileExists(t, input)
	assert.True(t, strings.HasPrefix(filepath.Base(input), s.Prefix()))

	// reserved, never written
	_ = s.Path("output.mp4")

	s.Release()
	assert.NoFileExists(t, input)
	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScopesDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := NewScope(dir, logger)
	require.NoError(t, err)
	b, err := NewScope(dir, logger)
	require.NoError(t, err)
	assert.NotEqual(t, a.Path("input.mp4"), b.Path("input.mp4"))
}
