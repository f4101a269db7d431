// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the download and upload commands: it fetches or
// stores the page, converts between the local format and the page body with
// pandoc, and runs the formula filters over the document tree.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/confluence-markdown/internal/convert"
	"github.com/pdiddy/confluence-markdown/internal/filter"
	"github.com/pdiddy/confluence-markdown/internal/pandoc"
	"github.com/pdiddy/confluence-markdown/pkg/types"
)

// PageFormat is the pandoc reader/writer used for page bodies.
const PageFormat = "html"

// ManifestName is the file written next to the rendered images on upload.
const ManifestName = "equations.yaml"

// Confluence is the subset of the Confluence client the pipeline uses.
type Confluence interface {
	Page(ctx context.Context, title string) (*types.Page, error)
	UploadPage(ctx context.Context, title, html string) error
	filter.AttachmentGetter
	filter.AttachmentUploader
}

// Converter converts documents to and from pandoc trees.
type Converter interface {
	ToTree(ctx context.Context, input []byte, from string) (*pandoc.Document, error)
	FromTree(ctx context.Context, doc *pandoc.Document, to string, opts convert.Options) ([]byte, error)
}

// Renderer renders formulas and can report whether its tools are present.
type Renderer interface {
	filter.Renderer
	Check(format types.ImageFormat) error
}

// Pipeline holds the collaborators shared by Download and Upload.
type Pipeline struct {
	cfg       types.Config
	wiki      Confluence
	converter Converter
	renderer  Renderer
	log       io.Writer
}

// New assembles a pipeline. Progress and warnings go to log.
func New(cfg types.Config, wiki Confluence, converter Converter, renderer Renderer, log io.Writer) *Pipeline {
	if log == nil {
		log = io.Discard
	}
	return &Pipeline{cfg: cfg, wiki: wiki, converter: converter, renderer: renderer, log: log}
}

// Manifest is the record of an upload's equations.
type Manifest struct {
	Page      string           `yaml:"page"`
	PageURL   string           `yaml:"page_url"`
	DryRun    bool             `yaml:"dry_run"`
	Equations []types.Equation `yaml:"equations"`
}

// Download writes the page titled title to outPath in format to. An empty
// format is inferred from outPath's extension, falling back to markdown.
func (p *Pipeline) Download(ctx context.Context, title, outPath, to string) error {
	if to == "" {
		to = outputFormat(outPath)
	}

	page, err := p.wiki.Page(ctx, title)
	if err != nil {
		return err
	}

	doc, err := p.converter.ToTree(ctx, []byte(page.Body), PageFormat)
	if err != nil {
		return err
	}

	src, err := filter.NewSource(p.wiki, p.cfg.URL, p.log)
	if err != nil {
		return err
	}
	if err := doc.Walk(ctx, src); err != nil {
		return fmt.Errorf("restoring formulas: %w", err)
	}

	out, err := p.converter.FromTree(ctx, doc, to, convert.Options{
		Standalone: true,
		Meta: []convert.MetaVar{
			{Key: "title", Value: page.Title},
			{Key: filter.MetaURL, Value: page.SelfURL},
		},
	})
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Fprintf(p.log, "downloaded: %q (version %d) -> %s\n", page.Title, page.Version, outPath)
	return nil
}

// Upload replaces the body of the page titled title with inPath, written in
// format from (inferred from the extension when empty). Display math is
// rendered into images first. The page is resolved before anything is
// rendered or uploaded, so a missing or ambiguous title changes nothing.
func (p *Pipeline) Upload(ctx context.Context, inPath, title, from string) error {
	if from == "" {
		f, err := convert.FormatFor(inPath)
		if err != nil {
			return err
		}
		from = f
	}

	page, err := p.wiki.Page(ctx, title)
	if err != nil {
		return err
	}

	input, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}
	doc, err := p.converter.ToTree(ctx, input, from)
	if err != nil {
		return err
	}
	doc.SetMeta(filter.MetaURL, page.SelfURL)

	n, err := countDisplayMath(ctx, doc)
	if err != nil {
		return err
	}
	if n > 0 {
		if err := p.renderer.Check(p.cfg.ImageFormat); err != nil {
			return err
		}
	}

	tgt := filter.NewTarget(p.renderer, p.wiki, filter.TargetOptions{
		BaseURL:   p.cfg.URL,
		ImagesDir: p.cfg.ImagesDir,
		Format:    p.cfg.ImageFormat,
		DryRun:    p.cfg.DryRun,
		Log:       p.log,
	})
	if err := doc.Walk(ctx, tgt); err != nil {
		return fmt.Errorf("rendering formulas: %w", err)
	}

	if eqs := tgt.Equations(); len(eqs) > 0 {
		err := writeManifest(filepath.Join(p.cfg.ImagesDir, ManifestName), Manifest{
			Page:      page.Title,
			PageURL:   page.SelfURL,
			DryRun:    p.cfg.DryRun,
			Equations: eqs,
		})
		if err != nil {
			return err
		}
	}

	html, err := p.converter.FromTree(ctx, doc, PageFormat, convert.Options{})
	if err != nil {
		return err
	}
	if err := p.wiki.UploadPage(ctx, title, string(html)); err != nil {
		return err
	}
	fmt.Fprintf(p.log, "uploaded: %s -> %q (%d equations)\n", inPath, page.Title, len(tgt.Equations()))
	return nil
}

// outputFormat picks the writer for a download target.
func outputFormat(path string) string {
	if f, err := convert.FormatFor(path); err == nil {
		return f
	}
	return "markdown"
}

func countDisplayMath(ctx context.Context, doc *pandoc.Document) (int, error) {
	var n int
	err := doc.Walk(ctx, pandoc.FilterFunc(func(_ context.Context, node pandoc.Node, _ pandoc.Meta) (pandoc.Result, error) {
		if m, ok := node.(pandoc.Math); ok && m.Type == pandoc.DisplayMath {
			n++
		}
		return pandoc.Unchanged(), nil
	}))
	return n, err
}

func writeManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling equation manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing equation manifest: %w", err)
	}
	return nil
}
