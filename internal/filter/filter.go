// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter holds the two document tree rewrites at the heart of the
// tool. Source runs on download and turns formula images back into LaTeX.
// Target runs on upload and turns display math into rendered attachments.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNoPageURL is returned by Target when the document metadata does not
// carry a usable page URL.
var ErrNoPageURL = errors.New("document has no page url in its metadata")

// MetaURL is the metadata field holding the page's REST self link.
const MetaURL = "url"

// ContentID extracts the Confluence content id from a page link. It takes
// the path segment following "content" or "pages" and otherwise the last
// all-digit segment.
func ContentID(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || link == "" {
		return "", fmt.Errorf("%w: %q", ErrNoPageURL, link)
	}

	segs := segments(u.Path)
	for i := 0; i < len(segs)-1; i++ {
		if segs[i] == "content" || segs[i] == "pages" {
			if id := segs[i+1]; allDigits(id) {
				return id, nil
			}
		}
	}
	for i := len(segs) - 1; i >= 0; i-- {
		if allDigits(segs[i]) {
			return segs[i], nil
		}
	}
	return "", fmt.Errorf("%w: no content id in %q", ErrNoPageURL, link)
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
