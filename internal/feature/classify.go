// Package feature holds the pure functions the extraction workflow uses to
// classify, merge, and project confidence-tagged attribute trees.
package feature

import (
	"strings"

	"github.com/boardspec/extractor/internal/model"
)

// FindMissing walks the tree depth-first and returns the dot-separated paths
// of every leaf that is still unknown: confidence of zero, or a value that
// case-insensitively equals "not available".
func FindMissing(tree *model.Tree) []string {
	var missing []string
	walkLeaves(tree, "", func(path string, leaf *model.Leaf) {
		if leaf.Confidence == 0 || strings.EqualFold(leaf.Value, model.NotAvailable) {
			missing = append(missing, path)
		}
	})
	return missing
}

// FindLowConfidence returns the paths of leaves whose confidence is above
// zero but below threshold. Zero-confidence leaves are missing, not low
// confidence; the two sets never overlap.
func FindLowConfidence(tree *model.Tree, threshold float64) []string {
	var low []string
	walkLeaves(tree, "", func(path string, leaf *model.Leaf) {
		if leaf.Confidence > 0 && leaf.Confidence < threshold {
			low = append(low, path)
		}
	})
	return low
}

// ProjectByConfidence flattens the tree into plain values: each leaf emits
// its value when its confidence meets the threshold, and the literal
// "Not Available" otherwise. The casing differs from the missing-detection
// sentinel "Not available"; downstream consumers depend on it, so it stays.
func ProjectByConfidence(tree *model.Tree, threshold float64) map[string]any {
	out := map[string]any{}
	if tree == nil {
		return out
	}
	for _, key := range tree.ChildKeys() {
		child := tree.Children[key]
		if child.IsLeaf() {
			if child.Leaf.Confidence >= threshold {
				out[key] = child.Leaf.Value
			} else {
				out[key] = "Not Available"
			}
			continue
		}
		out[key] = ProjectByConfidence(child, threshold)
	}
	return out
}

// BuildSkeleton builds the minimal tree containing exactly the given
// dot-separated paths, each terminating in an unknown leaf. The skeleton is
// serialized into generation prompts to tell the model which attributes to
// fill, and only those.
func BuildSkeleton(paths []string) *model.Tree {
	root := model.NewNode()
	for _, path := range paths {
		keys := strings.Split(path, ".")
		cur := root
		for _, key := range keys[:len(keys)-1] {
			next, ok := cur.Children[key]
			if !ok || next.IsLeaf() {
				next = model.NewNode()
				cur.Children[key] = next
			}
			cur = next
		}
		cur.Children[keys[len(keys)-1]] = model.NewLeaf(model.NotAvailable, 0)
	}
	return root
}

// Subset builds the minimal tree containing the given dot-separated paths
// with their current leaves copied from tree. Paths that do not resolve to a
// leaf are skipped. Refinement prompts use this to show the model the values
// it is being asked to improve.
func Subset(tree *model.Tree, paths []string) *model.Tree {
	root := model.NewNode()
	for _, path := range paths {
		leaf := tree.Lookup(path)
		if leaf == nil {
			continue
		}
		keys := strings.Split(path, ".")
		cur := root
		for _, key := range keys[:len(keys)-1] {
			next, ok := cur.Children[key]
			if !ok || next.IsLeaf() {
				next = model.NewNode()
				cur.Children[key] = next
			}
			cur = next
		}
		cur.Children[keys[len(keys)-1]] = model.NewLeaf(leaf.Value, leaf.Confidence)
	}
	return root
}

// walkLeaves visits every leaf in sorted-key order, so path lists come out
// deterministic run to run.
func walkLeaves(tree *model.Tree, prefix string, visit func(path string, leaf *model.Leaf)) {
	if tree == nil {
		return
	}
	for _, key := range tree.ChildKeys() {
		child := tree.Children[key]
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if child.IsLeaf() {
			visit(path, child.Leaf)
			continue
		}
		walkLeaves(child, path, visit)
	}
}
