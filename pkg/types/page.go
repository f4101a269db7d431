// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Page is a Confluence page as seen by the download and upload commands.
type Page struct {
	// ID is the Confluence content id (e.g. "123456").
	ID string `json:"id" yaml:"id"`

	// Title is the page title. Titles are assumed unique across the instance.
	Title string `json:"title" yaml:"title"`

	// Body is the page body in the "editor" representation (HTML-like markup).
	Body string `json:"body" yaml:"body"`

	// Version is the page's current version number.
	Version int `json:"version" yaml:"version"`

	// SelfURL is the canonical REST link of the page
	// (e.g. "https://example.atlassian.net/wiki/rest/api/content/123456").
	SelfURL string `json:"self_url" yaml:"self_url"`
}

// Attachment is a file attached to a Confluence content item.
type Attachment struct {
	// ID is the attachment's own content id (e.g. "att789").
	ID string `json:"id" yaml:"id"`

	// Title is the attachment filename; unique per parent content id.
	Title string `json:"title" yaml:"title"`

	// Comment is the attachment's metadata comment. For rendered formulas it
	// holds the percent-encoded LaTeX source.
	Comment string `json:"comment" yaml:"comment"`

	// DownloadPath is the download link relative to the base URL.
	DownloadPath string `json:"download_path,omitempty" yaml:"download_path,omitempty"`
}

// Equation records one display formula converted during upload.
type Equation struct {
	// Label is the equation identifier, e.g. "eq:1".
	Label string `yaml:"label"`

	// LaTeX is the trimmed formula source.
	LaTeX string `yaml:"latex"`

	// Encoded is LaTeX percent-encoded with "+" for spaces; it is stored as
	// the attachment comment.
	Encoded string `yaml:"encoded"`

	// ImagePath is the local path of the rendered image.
	ImagePath string `yaml:"image_path"`

	// RemoteURL is the download URL the attachment has once uploaded.
	RemoteURL string `yaml:"remote_url"`

	// Uploaded reports whether the attachment upload was performed.
	Uploaded bool `yaml:"uploaded"`
}
