package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, format, want string
	}{
		{"in/photo.png", "", "out/pre_photo_id.png"},
		{"in/photo.PNG", "jpg", "out/pre_photo_id.jpg"},
		{"in/notes.txt", "", "out/pre_notes_id.jpg"},
		{"https://example.com/img/face.webp?x=1", "", "out/pre_face_id.webp"},
		{"https://example.com/", "", "out/pre_photo_id.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, filepath.FromSlash(tt.want), OutputPath(tt.input, "out", "pre_", "_id", tt.format), tt.input)
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.png", "notes.txt", "sub/c.webp"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}

	files, err := ExpandInputs([]string{dir, "https://x/y.jpg", "single.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "sub", "c.webp"),
		"https://x/y.jpg",
		"single.jpg",
	}, files)

	assert.True(t, FileExists(filepath.Join(dir, "a.png")))
	assert.False(t, FileExists(dir))
	assert.True(t, DirExists(dir))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename(" a:b*c. "))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", FormatFileSize(2<<20))
}
