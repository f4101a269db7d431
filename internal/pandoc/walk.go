// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Action is what a filter decided for one element.
type Action int

const (
	ActionUnchanged Action = iota
	ActionReplace
	ActionRemove
)

// Result is a filter's decision for one element.
type Result struct {
	action Action
	nodes  []Node
}

// Unchanged keeps the element; the walk descends into its children.
func Unchanged() Result { return Result{action: ActionUnchanged} }

// Replace substitutes the element with nodes, spliced in order. The walk
// descends into the replacements.
func Replace(nodes ...Node) Result { return Result{action: ActionReplace, nodes: nodes} }

// Remove drops the element.
func Remove() Result { return Result{action: ActionRemove} }

// Action reports the decision.
func (r Result) Action() Action { return r.action }

// Nodes returns the replacement nodes of an ActionReplace result.
func (r Result) Nodes() []Node { return r.nodes }

// Filter is called once per element during a full-tree walk.
type Filter interface {
	Apply(ctx context.Context, n Node, meta Meta) (Result, error)
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(ctx context.Context, n Node, meta Meta) (Result, error)

func (f FilterFunc) Apply(ctx context.Context, n Node, meta Meta) (Result, error) {
	return f(ctx, n, meta)
}

// Walk applies f to every element of the document, depth-first in
// document order (object keys in lexical order, so "blocks" before
// "meta"). Only elements that sit in a list can be replaced or removed.
// meta is the metadata as it was before the walk started. The first
// filter error aborts the walk and leaves the document unmodified.
func (d *Document) Walk(ctx context.Context, f Filter) error {
	meta := d.Meta()
	out, err := walk(ctx, d.root, f, meta)
	if err != nil {
		return err
	}
	d.root = out.(map[string]any)
	return nil
}

func walk(ctx context.Context, x any, f Filter, meta Meta) (any, error) {
	switch v := x.(type) {
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			el, ok := item.(map[string]any)
			tag, tagged := el["t"].(string)
			if !ok || !tagged {
				w, err := walk(ctx, item, f, meta)
				if err != nil {
					return nil, err
				}
				out = append(out, w)
				continue
			}

			if err := ctx.Err(); err != nil {
				return nil, err
			}
			node, err := decodeElement(tag, el)
			if err != nil {
				return nil, err
			}
			res, err := f.Apply(ctx, node, meta)
			if err != nil {
				return nil, err
			}

			switch res.action {
			case ActionUnchanged:
				w, err := walk(ctx, item, f, meta)
				if err != nil {
					return nil, err
				}
				out = append(out, w)
			case ActionReplace:
				for _, n := range res.nodes {
					g, err := toGeneric(n)
					if err != nil {
						return nil, err
					}
					w, err := walk(ctx, g, f, meta)
					if err != nil {
						return nil, err
					}
					out = append(out, w)
				}
			case ActionRemove:
			default:
				return nil, fmt.Errorf("filter returned unknown action %d for %s", res.action, tag)
			}
		}
		return out, nil

	case map[string]any:
		out := make(map[string]any, len(v))
		for _, k := range sortedKeys(v) {
			w, err := walk(ctx, v[k], f, meta)
			if err != nil {
				return nil, err
			}
			out[k] = w
		}
		return out, nil

	default:
		return x, nil
	}
}

func decodeElement(tag string, el map[string]any) (Node, error) {
	c, ok := el["c"]
	if !ok {
		return Decode(tag, nil)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("re-encoding %s: %w", tag, err)
	}
	return Decode(tag, raw)
}

// toGeneric converts a typed node into the generic JSON form the walk
// operates on.
func toGeneric(n Node) (any, error) {
	data, err := Encode(n)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", n.Tag(), err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var g any
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", n.Tag(), err)
	}
	return g, nil
}
