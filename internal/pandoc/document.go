// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pandoc reads, rewrites, and writes pandoc's JSON document tree.
// Elements the filters inspect are decoded into typed nodes (see Node);
// everything else stays as generic JSON and round-trips unchanged.
package pandoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Document is a parsed pandoc JSON document.
type Document struct {
	root map[string]any
}

// Parse decodes a pandoc JSON document (pandoc >= 1.18, object form).
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("parsing pandoc JSON: %w", err)
	}
	if _, ok := root["blocks"].([]any); !ok {
		return nil, fmt.Errorf("parsing pandoc JSON: missing blocks array")
	}
	if _, ok := root["meta"]; !ok {
		root["meta"] = map[string]any{}
	}
	return &Document{root: root}, nil
}

// Marshal encodes the document back to pandoc JSON.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.Marshal(d.root)
	if err != nil {
		return nil, fmt.Errorf("encoding pandoc JSON: %w", err)
	}
	return data, nil
}

// Meta returns the document metadata. The map is shared with the document.
func (d *Document) Meta() Meta {
	m, _ := d.root["meta"].(map[string]any)
	if m == nil {
		m = map[string]any{}
		d.root["meta"] = m
	}
	return Meta(m)
}

// SetMeta sets a string metadata field, replacing any previous value.
func (d *Document) SetMeta(key, value string) {
	d.Meta()[key] = map[string]any{"t": "MetaString", "c": value}
}

// Blocks returns the number of top-level blocks.
func (d *Document) Blocks() int {
	b, _ := d.root["blocks"].([]any)
	return len(b)
}

// Meta is a document's metadata map in pandoc JSON form.
type Meta map[string]any

// String returns the plain-text value of metadata field key. MetaString
// values are returned as-is; MetaInlines and MetaBlocks are flattened,
// with Space and SoftBreak rendered as a single space.
func (m Meta) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	var b strings.Builder
	flatten(&b, v)
	return b.String(), true
}

func flatten(b *strings.Builder, v any) {
	switch x := v.(type) {
	case string:
		b.WriteString(x)
	case []any:
		for _, item := range x {
			flatten(b, item)
		}
	case map[string]any:
		switch x["t"] {
		case "Space", "SoftBreak", "LineBreak":
			b.WriteByte(' ')
		case "Math", "RawInline", "Code":
			// [format-or-attr, text]: keep only the text.
			if c, ok := x["c"].([]any); ok && len(c) == 2 {
				flatten(b, c[1])
			}
		default:
			flatten(b, x["c"])
		}
	}
}

// sortedKeys returns m's keys in lexical order so walks are deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
