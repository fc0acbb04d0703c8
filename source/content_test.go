package source

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeContent(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"plain utf-8", []byte("héllo"), "héllo"},
		{"utf-8 bom stripped", append([]byte{0xEF, 0xBB, 0xBF}, "héllo"...), "héllo"},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}, "hi"},
		{"utf-16be bom", []byte{0xFE, 0xFF, 0x00, 'h', 0x00, 'i'}, "hi"},
		{"invalid byte replaced", []byte{'a', 0xFF, 'b'}, "a\uFFFDb"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeContent(bytes.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a\n"), 0o644))

	text, err := ReadContent(path)
	require.NoError(t, err)
	assert.Equal(t, "package a\n", text)

	_, err = ReadContent(filepath.Join(t.TempDir(), "missing.go"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
