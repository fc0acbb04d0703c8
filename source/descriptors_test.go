package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/embedsync/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scannerMap = `[
  {"full_path": "/repo/app/main.go", "rel_path": "app/main.go", "project": "app", "ext": ".go"},
  {"full_path": "/repo/README.md", "rel_path": "README.md", "project": "repo"}
]`

func TestParseDescriptors(t *testing.T) {
	descriptors, err := ParseDescriptors(strings.NewReader(scannerMap))

	require.NoError(t, err)
	require.Len(t, descriptors, 2)
	assert.Equal(t, core.FileDescriptor{
		Locator:     "/repo/app/main.go",
		DisplayPath: "app/main.go",
		Project:     "app",
		Ext:         ".go",
	}, descriptors[0])
	assert.Equal(t, "README.md", descriptors[1].Name())
}

func TestParseDescriptors_WithBOM(t *testing.T) {
	descriptors, err := ParseDescriptors(strings.NewReader("\ufeff" + scannerMap))

	require.NoError(t, err)
	assert.Len(t, descriptors, 2)
}

func TestParseDescriptors_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "nope"},
		{"object instead of array", `{"full_path": "/a"}`},
		{"missing locator", `[{"rel_path": "a.go"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDescriptors(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrInvalidDescriptorMap)
		})
	}
}

func TestLoadDescriptors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codebase_map.json")
	require.NoError(t, os.WriteFile(path, []byte(scannerMap), 0o644))

	descriptors, err := LoadDescriptors(path)
	require.NoError(t, err)
	assert.Len(t, descriptors, 2)

	_, err = LoadDescriptors(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
