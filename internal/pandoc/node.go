// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import (
	"encoding/json"
	"fmt"
)

// Node is a tagged element of the pandoc JSON AST. The set of
// implementations is closed: Image, Math, RawInline, Str, Para, and Other
// for every element kind this tool does not inspect.
type Node interface {
	// Tag is the pandoc constructor name, e.g. "Image".
	Tag() string

	// payload is the JSON value of the element's "c" field; nil means the
	// element has no content (e.g. Space).
	payload() any
}

// MathType distinguishes display from inline formulas.
type MathType string

const (
	DisplayMath MathType = "DisplayMath"
	InlineMath  MathType = "InlineMath"
)

// Attr is pandoc's (identifier, classes, key-value pairs) triple.
type Attr struct {
	ID      string
	Classes []string
	KeyVals [][2]string
}

// Value returns the value of the first key-value pair named key.
func (a Attr) Value(key string) (string, bool) {
	for _, kv := range a.KeyVals {
		if kv[0] == key {
			return kv[1], true
		}
	}
	return "", false
}

func (a Attr) MarshalJSON() ([]byte, error) {
	classes := a.Classes
	if classes == nil {
		classes = []string{}
	}
	kvs := make([][]string, 0, len(a.KeyVals))
	for _, kv := range a.KeyVals {
		kvs = append(kvs, []string{kv[0], kv[1]})
	}
	return json.Marshal([]any{a.ID, classes, kvs})
}

func (a *Attr) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("attr: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("attr: want 3 fields, got %d", len(raw))
	}
	var kvs [][]string
	if err := unmarshalAll(raw, &a.ID, &a.Classes, &kvs); err != nil {
		return fmt.Errorf("attr: %w", err)
	}
	a.KeyVals = a.KeyVals[:0]
	for _, kv := range kvs {
		if len(kv) != 2 {
			return fmt.Errorf("attr: key-value pair has %d fields", len(kv))
		}
		a.KeyVals = append(a.KeyVals, [2]string{kv[0], kv[1]})
	}
	return nil
}

// Target is an (url, title) pair of a link or image.
type Target struct {
	URL   string
	Title string
}

func (t Target) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{t.URL, t.Title})
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("target: want 2 fields, got %d", len(raw))
	}
	t.URL, t.Title = raw[0], raw[1]
	return nil
}

// Image is an embedded image. Alt holds the caption inlines verbatim.
type Image struct {
	Attr   Attr
	Alt    json.RawMessage
	Target Target
}

func (Image) Tag() string { return "Image" }

func (n Image) payload() any {
	alt := n.Alt
	if len(alt) == 0 {
		alt = json.RawMessage("[]")
	}
	return []any{n.Attr, alt, n.Target}
}

// Math is a formula in TeX syntax.
type Math struct {
	Type MathType
	Text string
}

func (Math) Tag() string { return "Math" }

func (n Math) payload() any {
	return []any{map[string]any{"t": string(n.Type)}, n.Text}
}

// RawInline is inline markup passed through untouched to one output format.
type RawInline struct {
	Format string
	Text   string
}

func (RawInline) Tag() string { return "RawInline" }

func (n RawInline) payload() any { return []string{n.Format, n.Text} }

// Str is a run of text without spaces.
type Str struct {
	Text string
}

func (Str) Tag() string { return "Str" }

func (n Str) payload() any { return n.Text }

// Para is a paragraph. Inlines holds its children verbatim.
type Para struct {
	Inlines json.RawMessage
}

func (Para) Tag() string { return "Para" }

func (n Para) payload() any {
	if len(n.Inlines) == 0 {
		return json.RawMessage("[]")
	}
	return n.Inlines
}

// Other is any element kind not modelled above, kept verbatim.
type Other struct {
	Kind    string
	Content json.RawMessage
}

func (n Other) Tag() string { return n.Kind }

func (n Other) payload() any {
	if n.Content == nil {
		return nil
	}
	return n.Content
}

// Decode builds the typed node for an element with tag t and content c.
// c is nil for elements without content.
func Decode(t string, c json.RawMessage) (Node, error) {
	switch t {
	case "Image":
		var raw []json.RawMessage
		if err := json.Unmarshal(c, &raw); err != nil {
			return nil, fmt.Errorf("decoding Image: %w", err)
		}
		if len(raw) != 3 {
			return nil, fmt.Errorf("decoding Image: want 3 fields, got %d", len(raw))
		}
		n := Image{Alt: raw[1]}
		if err := unmarshalAll([]json.RawMessage{raw[0], raw[2]}, &n.Attr, &n.Target); err != nil {
			return nil, fmt.Errorf("decoding Image: %w", err)
		}
		return n, nil

	case "Math":
		var raw []json.RawMessage
		if err := json.Unmarshal(c, &raw); err != nil {
			return nil, fmt.Errorf("decoding Math: %w", err)
		}
		if len(raw) != 2 {
			return nil, fmt.Errorf("decoding Math: want 2 fields, got %d", len(raw))
		}
		var typ struct {
			T string `json:"t"`
		}
		var n Math
		if err := unmarshalAll(raw, &typ, &n.Text); err != nil {
			return nil, fmt.Errorf("decoding Math: %w", err)
		}
		n.Type = MathType(typ.T)
		return n, nil

	case "RawInline":
		var raw []string
		if err := json.Unmarshal(c, &raw); err != nil {
			return nil, fmt.Errorf("decoding RawInline: %w", err)
		}
		if len(raw) != 2 {
			return nil, fmt.Errorf("decoding RawInline: want 2 fields, got %d", len(raw))
		}
		return RawInline{Format: raw[0], Text: raw[1]}, nil

	case "Str":
		var n Str
		if err := json.Unmarshal(c, &n.Text); err != nil {
			return nil, fmt.Errorf("decoding Str: %w", err)
		}
		return n, nil

	case "Para":
		return Para{Inlines: c}, nil

	default:
		return Other{Kind: t, Content: c}, nil
	}
}

// Encode renders n as a pandoc JSON element.
func Encode(n Node) ([]byte, error) {
	el := map[string]any{"t": n.Tag()}
	if p := n.payload(); p != nil {
		el["c"] = p
	}
	return json.Marshal(el)
}

func unmarshalAll(raw []json.RawMessage, dst ...any) error {
	for i, d := range dst {
		if err := json.Unmarshal(raw[i], d); err != nil {
			return err
		}
	}
	return nil
}
