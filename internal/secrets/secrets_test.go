// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, BackendAPIKey, "  tok_abc123  \n")
				writeFile(t, dir, "other", "value")
				return dir
			},
			want: map[string]string{BackendAPIKey: "tok_abc123", "other": "value"},
		},
		{
			name: "missing directory is empty",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name:  "empty dir name is empty",
			setup: func(t *testing.T) string { return "" },
			want:  map[string]string{},
		},
		{
			name: "skips empty files dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, BackendAPIKey, "valid")
				writeFile(t, dir, "blank", "   \n\t ")
				writeFile(t, dir, ".gitkeep", "x")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				return dir
			},
			want: map[string]string{BackendAPIKey: "valid"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Load(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.values)
		})
	}
}

func TestSetAccessors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zeta", "z")
	writeFile(t, dir, BackendAPIKey, "k")

	set, err := Load(dir)
	require.NoError(t, err)

	v, ok := set.Get(BackendAPIKey)
	assert.True(t, ok)
	assert.Equal(t, "k", v)

	_, ok = set.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{BackendAPIKey, "zeta"}, set.Keys())
}

func TestLoadNotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file", "x")

	_, err := Load(filepath.Join(dir, "file"))
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}
