package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/confluence-markdown/pkg/types"
)

func newUploadFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "upload"}
	cmd.Flags().Bool("dry-run", true, "")
	cmd.Flags().String("images-dir", "", "")
	cmd.Flags().String("format", "", "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestApplyUploadFlags(t *testing.T) {
	base := types.Config{DryRun: false, ImagesDir: "images", ImageFormat: types.ImagePNG}

	tests := []struct {
		name    string
		args    []string
		want    types.Config
		wantErr string
	}{
		{
			name: "unset flags keep config",
			want: base,
		},
		{
			name: "dry run flag overrides config",
			args: []string{"--dry-run"},
			want: types.Config{DryRun: true, ImagesDir: "images", ImageFormat: types.ImagePNG},
		},
		{
			name: "images dir and format",
			args: []string{"--images-dir", "out/eq", "--format", "pdf"},
			want: types.Config{ImagesDir: "out/eq", ImageFormat: types.ImagePDF},
		},
		{
			name:    "bad format",
			args:    []string{"--format", "svg"},
			wantErr: `unsupported --format "svg"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			err := applyUploadFlags(newUploadFlags(t, tt.args...), &cfg)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"download", "upload", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	assert.Error(t, downloadCmd.Args(downloadCmd, []string{"only-title"}))
	assert.NoError(t, uploadCmd.Args(uploadCmd, []string{"notes.md", "Title"}))
}
