package model

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// NotAvailable is the sentinel value the extraction prompts instruct the
// model to emit for attributes it cannot find. Detection is case-insensitive.
const NotAvailable = "Not available"

// Leaf is a single extracted attribute value with a confidence score in [0,1].
type Leaf struct {
	Value      string
	Confidence float64
}

// Tree is one node of a nested attribute tree: either a leaf or an internal
// node with named children. Exactly one of Leaf / Children is set.
type Tree struct {
	Leaf     *Leaf
	Children map[string]*Tree
}

// NewLeaf returns a tree consisting of a single leaf.
func NewLeaf(value string, confidence float64) *Tree {
	return &Tree{Leaf: &Leaf{Value: value, Confidence: confidence}}
}

// NewNode returns an internal node with an empty child map.
func NewNode() *Tree {
	return &Tree{Children: map[string]*Tree{}}
}

// IsLeaf reports whether the node is a terminal attribute.
func (t *Tree) IsLeaf() bool {
	return t != nil && t.Leaf != nil
}

// ChildKeys returns the node's child names in sorted order. Sorting keeps
// classifier walks and prompt skeletons deterministic across runs.
func (t *Tree) ChildKeys() []string {
	if t == nil || t.Children == nil {
		return nil
	}
	keys := make([]string, 0, len(t.Children))
	for k := range t.Children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the leaf at a dot-separated path, or nil if the path does
// not resolve to a leaf.
func (t *Tree) Lookup(path string) *Leaf {
	cur := t
	for _, key := range strings.Split(path, ".") {
		if cur == nil || cur.Children == nil {
			return nil
		}
		cur = cur.Children[key]
	}
	if cur == nil {
		return nil
	}
	return cur.Leaf
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	if t.Leaf != nil {
		leaf := *t.Leaf
		return &Tree{Leaf: &leaf}
	}
	out := &Tree{Children: make(map[string]*Tree, len(t.Children))}
	for k, v := range t.Children {
		out.Children[k] = v.Clone()
	}
	return out
}

// MarshalJSON encodes a leaf as {"value": ..., "confidence": ...} and an
// internal node as a plain object of its children.
func (t *Tree) MarshalJSON() ([]byte, error) {
	if t.Leaf != nil {
		return json.Marshal(map[string]any{
			"value":      t.Leaf.Value,
			"confidence": t.Leaf.Confidence,
		})
	}
	out := make(map[string]*Tree, len(t.Children))
	for k, v := range t.Children {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire shape produced by the completion service.
// An object carrying both "value" and "confidence" keys is a leaf; any other
// object is an internal node. Anything that is not an object is rejected so
// malformed model output fails the parse instead of corrupting the tree.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: attribute tree must be a JSON object")
	}

	if rawValue, hasValue := raw["value"]; hasValue {
		if rawConf, hasConf := raw["confidence"]; hasConf {
			leaf, err := decodeLeaf(rawValue, rawConf)
			if err != nil {
				return err
			}
			t.Leaf = leaf
			t.Children = nil
			return nil
		}
	}

	children := make(map[string]*Tree, len(raw))
	for key, rawChild := range raw {
		child := &Tree{}
		if err := child.UnmarshalJSON(rawChild); err != nil {
			return eris.Wrapf(err, "model: attribute %q", key)
		}
		children[key] = child
	}
	t.Leaf = nil
	t.Children = children
	return nil
}

func decodeLeaf(rawValue, rawConf json.RawMessage) (*Leaf, error) {
	var conf float64
	if err := json.Unmarshal(rawConf, &conf); err != nil {
		return nil, eris.Wrap(err, "model: leaf confidence must be a number")
	}
	return &Leaf{Value: coerceValue(rawValue), Confidence: conf}, nil
}

// coerceValue renders a leaf value as a string. Models occasionally return
// numbers or lists for fields like core counts and certifications.
func coerceValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			switch v := it.(type) {
			case string:
				parts = append(parts, v)
			default:
				b, _ := json.Marshal(v)
				parts = append(parts, string(b))
			}
		}
		return strings.Join(parts, ", ")
	}
	return strings.TrimSpace(string(raw))
}

// ParseTree parses a completion-service response into an attribute tree.
// Markdown code fences are stripped before decoding, since chat models wrap
// JSON in ```json blocks regardless of instructions.
func ParseTree(response string) (*Tree, error) {
	cleaned := strings.ReplaceAll(response, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	tree := &Tree{}
	if err := json.Unmarshal([]byte(cleaned), tree); err != nil {
		return nil, eris.Wrap(err, "model: parse attribute tree")
	}
	return tree, nil
}
