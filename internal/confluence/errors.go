// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package confluence

import (
	"errors"
	"fmt"
)

var (
	// ErrPageLookup is wrapped by every page-title resolution failure.
	ErrPageLookup = errors.New("failed to find a unique page")

	// ErrPageNotFound means no page has the requested title.
	ErrPageNotFound = fmt.Errorf("%w: no match", ErrPageLookup)

	// ErrPageNotUnique means several pages share the requested title.
	ErrPageNotUnique = fmt.Errorf("%w: several matches", ErrPageLookup)

	// ErrAttachmentNotFound means the content item has no attachment with
	// the requested title.
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// APIError is a non-2xx response from the Confluence API.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Body)
}
