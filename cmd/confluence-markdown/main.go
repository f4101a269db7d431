// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the confluence-markdown CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/confluence-markdown/internal/config"
	"github.com/pdiddy/confluence-markdown/internal/confluence"
	"github.com/pdiddy/confluence-markdown/internal/convert"
	"github.com/pdiddy/confluence-markdown/internal/pipeline"
	"github.com/pdiddy/confluence-markdown/internal/render"
	"github.com/pdiddy/confluence-markdown/internal/toolchain"
	"github.com/pdiddy/confluence-markdown/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir is searched for credentials when the config has no "auth".
const secretsDir = ".secrets/"

// rootCmd is the base command for the confluence-markdown CLI.
var rootCmd = &cobra.Command{
	Use:   "confluence-markdown",
	Short: "Edit Confluence pages as local documents with LaTeX formulas",
	Long: `confluence-markdown moves Confluence pages to and from any document
format pandoc understands. Display formulas are rendered with LaTeX and
stored as image attachments whose comment carries the formula source, so a
download restores the LaTeX source.

Credentials and the instance URL are read from the config file
(default ~/.config/pandoc-confluence.json):

  {"auth": ["user", "token"], "url": "https://example.atlassian.net/wiki"}`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config-file", config.DefaultPath, "config file (JSON, or YAML by extension)")
}

// loadConfig reads the configuration named by --config-file.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	path, _ := cmd.Flags().GetString("config-file")
	return config.Load(config.Options{
		Path:       path,
		SecretsDir: secretsDir,
		Log:        os.Stderr,
	})
}

// newPipeline wires the Confluence client, pandoc, and the formula renderer
// for cfg. Subprocess diagnostics and progress go to stderr.
func newPipeline(cfg types.Config) (*pipeline.Pipeline, error) {
	rt, err := toolchain.Detect(cfg.Image)
	if err != nil {
		return nil, err
	}
	if rt.Name() != "host" {
		fmt.Fprintf(os.Stderr, "Using %s image %s\n", rt.Name(), cfg.Image)
	}

	pd, err := convert.NewPandoc(rt, cfg.Pandoc, os.Stderr)
	if err != nil {
		return nil, err
	}
	r := render.New(rt, cfg.LaTeX, cfg.Rasterizer, os.Stderr)
	wiki := confluence.New(cfg, os.Stderr)

	return pipeline.New(cfg, wiki, pd, r, os.Stderr), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
