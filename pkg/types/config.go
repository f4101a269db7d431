// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Credentials is the basic-auth pair used for every Confluence request.
type Credentials struct {
	// User is the account name (usually an email address on Confluence Cloud).
	User string `json:"user" yaml:"user"`

	// Token is the API token issued for User.
	Token string `json:"-" yaml:"-"`
}

// IsZero reports whether no credentials were provided.
func (c Credentials) IsZero() bool {
	return c.User == "" && c.Token == ""
}

// HTTPConfig holds shared HTTP settings used by the Confluence client.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "confluence-markdown/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ImageFormat selects the output of the formula renderer.
type ImageFormat string

const (
	ImagePNG ImageFormat = "png"
	ImagePDF ImageFormat = "pdf"
)

// ToolchainConfig names the external programs shelled out to. Its keys sit
// at the top level of the config file.
type ToolchainConfig struct {
	// Pandoc is the document converter binary (default "pandoc").
	Pandoc string `json:"pandoc" yaml:"pandoc"`

	// LaTeX is the typesetting compiler binary (default "pdflatex").
	LaTeX string `json:"latex" yaml:"latex"`

	// Rasterizer converts compiled PDFs to raster images (default "convert").
	Rasterizer string `json:"rasterizer" yaml:"rasterizer"`

	// Image is a container image providing the binaries above. When empty
	// the binaries are run directly from PATH.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

// Config is the per-invocation configuration. It is loaded once and not
// modified afterwards.
type Config struct {
	// Field tags name the keys the config file uses; the HTTP and toolchain
	// settings are flat top-level keys.
	HTTPConfig `yaml:",inline"`

	// Auth holds the Confluence credentials.
	Auth Credentials `json:"auth" yaml:"auth"`

	// URL is the Confluence base URL, e.g. "https://example.atlassian.net/wiki".
	URL string `json:"url" yaml:"url"`

	// DryRun disables attachment uploads during upload. Rendered images are
	// still produced locally. Defaults to true.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// ImagesDir is where rendered formula images are written (default "images").
	ImagesDir string `json:"images_dir" yaml:"images_dir"`

	// ImageFormat is the formula render format (default "png").
	ImageFormat ImageFormat `json:"image_format" yaml:"image_format"`

	ToolchainConfig `yaml:",inline"`
}
