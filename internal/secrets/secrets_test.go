// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/confluence-markdown/pkg/types"
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
				writeFile(t, dir, KeyToken, "  me@example.com:abc123  \n")
				return dir
			},
			want: map[string]string{KeyToken: "me@example.com:abc123"},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files and dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyToken, "u:t")
				writeFile(t, dir, "empty-key", "   \n")
				writeFile(t, dir, ".gitkeep", "")
				return dir
			},
			want: map[string]string{KeyToken: "u:t"},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				return dir
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		in      string
		want    types.Credentials
		wantErr bool
	}{
		{in: "me@example.com:abc", want: types.Credentials{User: "me@example.com", Token: "abc"}},
		{in: "me:a:b:c", want: types.Credentials{User: "me", Token: "a:b:c"}},
		{in: "no-colon", wantErr: true},
		{in: ":token", wantErr: true},
		{in: "user:", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseToken(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("environment wins", func(t *testing.T) {
		t.Setenv(EnvToken, "env-user:env-token")
		dir := t.TempDir()
		writeFile(t, dir, KeyToken, "file-user:file-token")

		creds, err := Resolve(dir)
		require.NoError(t, err)
		assert.Equal(t, "env-user", creds.User)
	})

	t.Run("falls back to key file", func(t *testing.T) {
		t.Setenv(EnvToken, "")
		dir := t.TempDir()
		writeFile(t, dir, KeyToken, "file-user:file-token")

		creds, err := Resolve(dir)
		require.NoError(t, err)
		assert.Equal(t, types.Credentials{User: "file-user", Token: "file-token"}, creds)
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv(EnvToken, "")
		_, err := Resolve(t.TempDir())
		assert.ErrorIs(t, err, ErrNoCredentials)
	})

	t.Run("malformed environment value", func(t *testing.T) {
		t.Setenv(EnvToken, "garbage")
		_, err := Resolve(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), EnvToken)
	})
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
