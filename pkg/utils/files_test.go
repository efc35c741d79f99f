package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseName(t *testing.T) {
	assert.Equal(t, "b020_90_100", BaseName("audio/b020_90_100.wav"))
	assert.Equal(t, "clip", BaseName("clip.flac"))
	assert.Equal(t, "noext", BaseName("/data/noext"))
}

func TestListFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.wav", "a.WAV", "c.mp3", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, MakeDir(filepath.Join(dir, "sub.wav")))

	names, err := ListFiles(dir, ".wav", ".mp3")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.WAV", "b.wav", "c.mp3"}, names)
}

func TestGenerateUUID(t *testing.T) {
	a, b := GenerateUUID(), GenerateUUID()
	assert.True(t, IsUUID(a))
	assert.NotEqual(t, a, b)
	assert.False(t, IsUUID("not-a-uuid"))
}
