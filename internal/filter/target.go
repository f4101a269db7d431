// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/confluence-markdown/internal/confluence"
	"github.com/pdiddy/confluence-markdown/internal/pandoc"
	"github.com/pdiddy/confluence-markdown/pkg/types"
)

// Renderer typesets a formula into an image file.
type Renderer interface {
	Render(ctx context.Context, source, outBase string, format types.ImageFormat) (string, error)
}

// AttachmentUploader stores a file as an attachment of a content item.
type AttachmentUploader interface {
	UploadAttachment(ctx context.Context, contentID, filename string, data []byte, comment string) error
}

// TargetOptions configures an upload filter.
type TargetOptions struct {
	// BaseURL is the Confluence instance root used to build attachment links.
	BaseURL string

	// ImagesDir receives the rendered images.
	ImagesDir string

	Format types.ImageFormat

	// DryRun renders images but skips the attachment uploads.
	DryRun bool

	// Log receives one progress line per equation; nil discards them.
	Log io.Writer
}

// Target rewrites display math into images of the rendered formula,
// uploading each image as an attachment of the page named by the
// document's "url" metadata. Equations are numbered from 1 in document
// order; use a fresh Target for every document.
type Target struct {
	renderer Renderer
	uploader AttachmentUploader
	opts     TargetOptions

	counter   int
	equations []types.Equation
}

// NewTarget returns an upload filter.
func NewTarget(r Renderer, up AttachmentUploader, opts TargetOptions) *Target {
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	if opts.Format == "" {
		opts.Format = types.ImagePNG
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Target{renderer: r, uploader: up, opts: opts}
}

// Equations returns the equations converted so far, in document order.
func (t *Target) Equations() []types.Equation {
	return t.equations
}

// Apply implements pandoc.Filter.
func (t *Target) Apply(ctx context.Context, n pandoc.Node, meta pandoc.Meta) (pandoc.Result, error) {
	switch n := n.(type) {
	case pandoc.Math:
		if n.Type != pandoc.DisplayMath {
			return pandoc.Unchanged(), nil
		}
		return t.math(ctx, n, meta)
	default:
		return pandoc.Unchanged(), nil
	}
}

func (t *Target) math(ctx context.Context, m pandoc.Math, meta pandoc.Meta) (pandoc.Result, error) {
	link, _ := meta.String(MetaURL)
	contentID, err := ContentID(link)
	if err != nil {
		return pandoc.Result{}, err
	}

	src := strings.TrimSpace(m.Text)
	if src == "" {
		return pandoc.Unchanged(), nil
	}

	t.counter++
	label := "eq:" + strconv.Itoa(t.counter)
	stem := strings.ReplaceAll(label, ":", "_")

	path, err := t.renderer.Render(ctx, src, filepath.Join(t.opts.ImagesDir, stem), t.opts.Format)
	if err != nil {
		return pandoc.Result{}, fmt.Errorf("rendering %s: %w", label, err)
	}

	eq := types.Equation{
		Label:     label,
		LaTeX:     src,
		Encoded:   url.QueryEscape(src),
		ImagePath: path,
		RemoteURL: confluence.AttachmentURL(t.opts.BaseURL, contentID, filepath.Base(path)),
	}

	if t.opts.DryRun {
		fmt.Fprintf(t.opts.Log, "rendered: %s -> %s (dry run, not uploaded)\n", label, path)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return pandoc.Result{}, fmt.Errorf("reading rendered %s: %w", label, err)
		}
		if err := t.uploader.UploadAttachment(ctx, contentID, filepath.Base(path), data, eq.Encoded); err != nil {
			return pandoc.Result{}, fmt.Errorf("uploading %s: %w", label, err)
		}
		eq.Uploaded = true
		fmt.Fprintf(t.opts.Log, "uploaded: %s -> %s\n", label, eq.RemoteURL)
	}
	t.equations = append(t.equations, eq)

	return pandoc.Replace(pandoc.Image{
		Attr: pandoc.Attr{
			ID:      label,
			KeyVals: [][2]string{{"latex", eq.Encoded}},
		},
		Target: pandoc.Target{URL: eq.RemoteURL},
	}), nil
}
