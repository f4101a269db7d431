package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/confluence-markdown/pkg/types"
)

var uploadCmd = &cobra.Command{
	Use:   "upload INPUT_FILE TITLE",
	Short: "Replace a Confluence page with a local document",
	Long: `Upload converts INPUT_FILE to the page body of the existing page titled
TITLE. Each display formula is rendered with LaTeX into the images
directory and uploaded as an attachment of the page, with its source kept
in the attachment comment.

Uploads of attachments are skipped while dry_run is set (the default);
pass --dry-run=false or set "dry_run": false in the config to upload them.
The page body itself is always replaced.`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().String("from", "", "pandoc input format (default: from INPUT_FILE extension)")
	uploadCmd.Flags().Bool("dry-run", true, "render formulas but do not upload attachments (overrides config)")
	uploadCmd.Flags().String("images-dir", "", "directory for rendered formulas (overrides config)")
	uploadCmd.Flags().String("format", "", "formula image format: png or pdf (overrides config)")

	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyUploadFlags(cmd, &cfg); err != nil {
		return err
	}
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	from, _ := cmd.Flags().GetString("from")
	return p.Upload(cmd.Context(), args[0], args[1], from)
}

// applyUploadFlags lets explicitly set flags override the loaded config.
func applyUploadFlags(cmd *cobra.Command, cfg *types.Config) error {
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}
	if dir, _ := flags.GetString("images-dir"); dir != "" {
		cfg.ImagesDir = dir
	}
	if f, _ := flags.GetString("format"); f != "" {
		switch types.ImageFormat(f) {
		case types.ImagePNG, types.ImagePDF:
			cfg.ImageFormat = types.ImageFormat(f)
		default:
			return fmt.Errorf("unsupported --format %q: use png or pdf", f)
		}
	}
	return nil
}
