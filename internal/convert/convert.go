// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns documents into pandoc JSON trees and back by
// shelling out to pandoc.
package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// TreeFormat is pandoc's name for its JSON AST.
const TreeFormat = "json"

// Options controls rendering a tree back to a document.
type Options struct {
	// Standalone emits a complete document (with a metadata header for
	// formats that have one) instead of a fragment.
	Standalone bool

	// Meta sets metadata fields, in order, as "-M key:value".
	Meta []MetaVar
}

// MetaVar is a single metadata assignment.
type MetaVar struct {
	Key   string
	Value string
}

// formatsByExt maps file extensions to pandoc format names.
var formatsByExt = map[string]string{
	".md":       "markdown",
	".markdown": "markdown",
	".txt":      "markdown",
	".tex":      "latex",
	".latex":    "latex",
	".html":     "html",
	".htm":      "html",
	".rst":      "rst",
	".org":      "org",
	".adoc":     "asciidoc",
	".textile":  "textile",
	".docx":     "docx",
	".odt":      "odt",
	".ipynb":    "ipynb",
	".json":     TreeFormat,
}

// FormatFor returns the pandoc format implied by path's extension.
func FormatFor(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := formatsByExt[ext]; ok {
		return f, nil
	}
	if ext == "" {
		return "", fmt.Errorf("cannot infer format of %s: no file extension", path)
	}
	return "", fmt.Errorf("cannot infer format of %s: unknown extension %s", path, ext)
}
