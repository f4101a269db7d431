// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/confluence-markdown/internal/pandoc"
	"github.com/pdiddy/confluence-markdown/internal/toolchain"
)

// Pandoc converts documents by piping them through the pandoc binary. It
// depends on a toolchain.Runtime injected at construction time. Input and
// output always travel over stdin/stdout so the same code works when
// pandoc runs in a container.
type Pandoc struct {
	runtime toolchain.Runtime
	bin     string
	diag    io.Writer
}

// NewPandoc creates a converter that runs bin through rt. It verifies that
// pandoc is runnable before returning. pandoc's warnings go to diag.
func NewPandoc(rt toolchain.Runtime, bin string, diag io.Writer) (*Pandoc, error) {
	if err := rt.Require(bin); err != nil {
		return nil, fmt.Errorf("pandoc not available in %s runtime: %w", rt.Name(), err)
	}
	return &Pandoc{runtime: rt, bin: bin, diag: diag}, nil
}

// ToTree parses input, written in pandoc format from, into a document tree.
func (p *Pandoc) ToTree(ctx context.Context, input []byte, from string) (*pandoc.Document, error) {
	out, err := p.run(ctx, bytes.NewReader(input), "-f", from, "-t", TreeFormat)
	if err != nil {
		return nil, fmt.Errorf("converting %s to tree: %w", from, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("pandoc produced empty output for %s input", from)
	}
	return pandoc.Parse(out)
}

// FromTree renders doc in pandoc format to.
func (p *Pandoc) FromTree(ctx context.Context, doc *pandoc.Document, to string, opts Options) ([]byte, error) {
	data, err := doc.Marshal()
	if err != nil {
		return nil, err
	}

	args := []string{"-f", TreeFormat, "-t", to}
	if opts.Standalone {
		args = append(args, "-s")
	}
	for _, m := range opts.Meta {
		args = append(args, "-M", m.Key+":"+m.Value)
	}
	// Binary writers (docx, odt) refuse stdout unless told explicitly.
	args = append(args, "-o", "-")

	out, err := p.run(ctx, bytes.NewReader(data), args...)
	if err != nil {
		return nil, fmt.Errorf("converting tree to %s: %w", to, err)
	}
	return out, nil
}

func (p *Pandoc) run(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	return toolchain.Output(ctx, p.runtime, toolchain.Command{
		Name:   p.bin,
		Args:   args,
		Stdin:  stdin,
		Stderr: p.diag,
	})
}
