// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads the per-invocation configuration from the JSON
// config file, environment overrides, and the secrets fallback.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/confluence-markdown/internal/secrets"
	"github.com/pdiddy/confluence-markdown/pkg/types"
)

const (
	// DefaultPath is the config file used when --config-file is not given.
	DefaultPath = "~/.config/pandoc-confluence.json"

	// EnvPrefix prefixes environment overrides, e.g. PANDOC_CONFLUENCE_URL.
	EnvPrefix = "PANDOC_CONFLUENCE"

	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 3
	defaultUserAgent  = "confluence-markdown/0.1"
)

// ErrNoURL is returned when neither the config file nor the environment
// names a Confluence base URL.
var ErrNoURL = errors.New("confluence url not configured")

// Options controls where Load looks for configuration.
type Options struct {
	// Path is the config file. A leading "~/" expands to the home directory.
	Path string

	// SecretsDir is searched for credentials when the file has no "auth".
	SecretsDir string

	// Log receives informational lines; nil discards them.
	Log io.Writer
}

// Load reads the config file at opts.Path (JSON, or YAML by extension),
// applies PANDOC_CONFLUENCE_* environment overrides, and fills in defaults.
// A missing file at DefaultPath is tolerated as long as the URL and
// credentials come from elsewhere; any other missing path is an error.
func Load(opts Options) (types.Config, error) {
	w := opts.Log
	if w == nil {
		w = io.Discard
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := expandHome(opts.Path)
	if err != nil {
		return types.Config{}, err
	}
	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			v.SetConfigFile(path)
			if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
				v.SetConfigType("json")
			}
			if err := v.ReadInConfig(); err != nil {
				return types.Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
			fmt.Fprintln(w, "Using config file:", v.ConfigFileUsed())
		} else if !os.IsNotExist(statErr) || opts.Path != DefaultPath {
			return types.Config{}, fmt.Errorf("reading config %s: %w", path, statErr)
		}
	}

	cfg := types.Config{
		HTTPConfig: types.HTTPConfig{
			Timeout:    v.GetDuration("timeout"),
			UserAgent:  v.GetString("user_agent"),
			MaxRetries: v.GetInt("max_retries"),
		},
		URL:         strings.TrimRight(v.GetString("url"), "/"),
		DryRun:      v.GetBool("dry_run"),
		ImagesDir:   v.GetString("images_dir"),
		ImageFormat: types.ImageFormat(v.GetString("image_format")),
		ToolchainConfig: types.ToolchainConfig{
			Pandoc:     v.GetString("pandoc"),
			LaTeX:      v.GetString("latex"),
			Rasterizer: v.GetString("rasterizer"),
			Image:      v.GetString("image"),
		},
	}

	if cfg.URL == "" {
		return types.Config{}, ErrNoURL
	}
	switch cfg.ImageFormat {
	case types.ImagePNG, types.ImagePDF:
	default:
		return types.Config{}, fmt.Errorf("unsupported image_format %q: use png or pdf", cfg.ImageFormat)
	}

	auth, err := parseAuth(v.GetStringSlice("auth"))
	if err != nil {
		return types.Config{}, err
	}
	if auth.IsZero() {
		auth, err = secrets.Resolve(opts.SecretsDir)
		if err != nil {
			return types.Config{}, fmt.Errorf("resolving credentials: %w", err)
		}
	}
	cfg.Auth = auth

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timeout", defaultTimeout)
	v.SetDefault("user_agent", defaultUserAgent)
	v.SetDefault("max_retries", defaultMaxRetries)
	v.SetDefault("dry_run", true)
	v.SetDefault("images_dir", "images")
	v.SetDefault("image_format", string(types.ImagePNG))
	v.SetDefault("pandoc", "pandoc")
	v.SetDefault("latex", "pdflatex")
	v.SetDefault("rasterizer", "convert")
	v.SetDefault("image", "")
}

// parseAuth accepts the [user, token] pair from the config file. An empty
// list means "not configured".
func parseAuth(pair []string) (types.Credentials, error) {
	switch len(pair) {
	case 0:
		return types.Credentials{}, nil
	case 2:
		if pair[0] == "" || pair[1] == "" {
			return types.Credentials{}, fmt.Errorf("auth: user and token must be non-empty")
		}
		return types.Credentials{User: pair[0], Token: pair[1]}, nil
	default:
		return types.Credentials{}, fmt.Errorf("auth: want [user, token], got %d values", len(pair))
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
