// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render typesets LaTeX formulas into image files using an
// external LaTeX compiler and rasterizer.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/confluence-markdown/internal/toolchain"
	"github.com/pdiddy/confluence-markdown/pkg/types"
)

// ErrCompile is returned when the LaTeX compiler rejects a formula.
var ErrCompile = errors.New("formula did not compile")

// Scratch file names, relative to the scratch directory.
const (
	texName = "formula.tex"
	pdfName = "formula.pdf"
)

const preamble = `\documentclass[preview]{standalone}
\usepackage{amsmath,amssymb}
\begin{document}
\begin{align*}
`

const postamble = `
\end{align*}
\end{document}
`

// Source returns the standalone LaTeX document that typesets formula as a
// display equation.
func Source(formula string) string {
	return preamble + strings.TrimSpace(formula) + postamble
}

// Renderer turns formulas into image files.
type Renderer struct {
	runtime    toolchain.Runtime
	latex      string
	rasterizer string
	diag       io.Writer
}

// New returns a Renderer that runs the latex and rasterizer binaries
// through rt. Compiler output for failed formulas goes to diag.
func New(rt toolchain.Runtime, latex, rasterizer string, diag io.Writer) *Renderer {
	if diag == nil {
		diag = io.Discard
	}
	return &Renderer{runtime: rt, latex: latex, rasterizer: rasterizer, diag: diag}
}

// Check verifies that the tools needed for format are available.
func (r *Renderer) Check(format types.ImageFormat) error {
	tools := []string{r.latex}
	if format != types.ImagePDF {
		tools = append(tools, r.rasterizer)
	}
	if err := r.runtime.Require(tools...); err != nil {
		return fmt.Errorf("formula rendering unavailable in %s runtime: %w", r.runtime.Name(), err)
	}
	return nil
}

// Render typesets source and writes the result to outBase plus an
// extension for format, creating parent directories as needed. It returns
// the path of the image. For PDF output the generated .tex is kept next to
// the PDF.
func (r *Renderer) Render(ctx context.Context, source, outBase string, format types.ImageFormat) (string, error) {
	if format == "" {
		format = types.ImagePNG
	}

	scratch, err := os.MkdirTemp("", "confluence-markdown-*")
	if err != nil {
		return "", fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	doc := Source(source)
	if err := os.WriteFile(filepath.Join(scratch, texName), []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", texName, err)
	}

	if err := r.compile(ctx, scratch, doc); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(outBase), 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	if format == types.ImagePDF {
		if err := copyFile(filepath.Join(scratch, texName), outBase+".tex"); err != nil {
			return "", err
		}
		out := outBase + ".pdf"
		if err := copyFile(filepath.Join(scratch, pdfName), out); err != nil {
			return "", err
		}
		return out, nil
	}

	raster := "formula." + string(format)
	var msgs bytes.Buffer
	err = r.runtime.Run(ctx, toolchain.Command{
		Name:   r.rasterizer,
		Args:   []string{"-density", "300", "-quality", "85", pdfName, raster},
		Dir:    scratch,
		Stdout: &msgs,
		Stderr: &msgs,
	})
	if err != nil {
		fmt.Fprintf(r.diag, "%s", msgs.String())
		return "", fmt.Errorf("rasterizing formula to %s: %w", format, err)
	}

	out := outBase + "." + string(format)
	if err := copyFile(filepath.Join(scratch, raster), out); err != nil {
		return "", err
	}
	return out, nil
}

// compile runs the LaTeX compiler in dir. On failure the compiler log and
// the generated document are written to the diagnostic writer.
func (r *Renderer) compile(ctx context.Context, dir, doc string) error {
	var log bytes.Buffer
	err := r.runtime.Run(ctx, toolchain.Command{
		Name:   r.latex,
		Args:   []string{"-interaction=nonstopmode", "-halt-on-error", texName},
		Dir:    dir,
		Stdout: &log,
		Stderr: &log,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(r.diag, "%s\n%s\n", log.String(), doc)
		return fmt.Errorf("%w: %v", ErrCompile, err)
	}
	if _, err := os.Stat(filepath.Join(dir, pdfName)); err != nil {
		fmt.Fprintf(r.diag, "%s\n%s\n", log.String(), doc)
		return fmt.Errorf("%w: %s produced no %s", ErrCompile, r.latex, pdfName)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(src), err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}
