// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/pdiddy/confluence-markdown/internal/confluence"
	"github.com/pdiddy/confluence-markdown/internal/pandoc"
	"github.com/pdiddy/confluence-markdown/pkg/types"
)

// AttachmentGetter looks up an attachment by parent content id and file name.
type AttachmentGetter interface {
	Attachment(ctx context.Context, contentID, name string) (*types.Attachment, error)
}

// Source rewrites images that point at formula attachments into raw TeX.
// The attachment comment holds the percent-encoded LaTeX source. Only
// images on this instance whose path is an attachment download path are
// looked up; icons, emoticons and external images are left alone.
type Source struct {
	attachments AttachmentGetter
	host        string
	log         io.Writer
}

// NewSource returns a download filter for the instance at baseURL.
// Warnings about images it cannot resolve go to log.
func NewSource(attachments AttachmentGetter, baseURL string, log io.Writer) (*Source, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if log == nil {
		log = io.Discard
	}
	return &Source{attachments: attachments, host: strings.ToLower(u.Host), log: log}, nil
}

// Apply implements pandoc.Filter.
func (s *Source) Apply(ctx context.Context, n pandoc.Node, _ pandoc.Meta) (pandoc.Result, error) {
	switch n := n.(type) {
	case pandoc.Image:
		return s.image(ctx, n)
	default:
		return pandoc.Unchanged(), nil
	}
}

func (s *Source) image(ctx context.Context, img pandoc.Image) (pandoc.Result, error) {
	u, err := url.Parse(img.Target.URL)
	if err != nil || !s.ownHost(u) {
		return pandoc.Unchanged(), nil
	}
	contentID, name, ok := confluence.SplitAttachmentPath(u.Path)
	if !ok {
		return pandoc.Unchanged(), nil
	}

	att, err := s.attachments.Attachment(ctx, contentID, name)
	if errors.Is(err, confluence.ErrAttachmentNotFound) {
		fmt.Fprintf(s.log, "warning: no attachment %s on %s, leaving image as is\n", name, contentID)
		return pandoc.Unchanged(), nil
	}
	if err != nil {
		return pandoc.Result{}, fmt.Errorf("resolving image %s: %w", img.Target.URL, err)
	}
	if att.Comment == "" {
		return pandoc.Unchanged(), nil
	}

	src, err := url.QueryUnescape(att.Comment)
	if err != nil {
		fmt.Fprintf(s.log, "warning: attachment %s on %s has an undecodable comment: %v\n", name, contentID, err)
		return pandoc.Unchanged(), nil
	}
	return pandoc.Replace(pandoc.RawInline{Format: "tex", Text: "$$" + src + "$$"}), nil
}

// ownHost reports whether u points at this instance. Host-relative links
// ("/wiki/download/...") are taken to be local.
func (s *Source) ownHost(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	if host == "" {
		return u.Scheme == "" && strings.HasPrefix(u.Path, "/")
	}
	if host == s.host {
		return true
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), ".atlassian.net")
}
