package feature

import "github.com/boardspec/extractor/internal/model"

// Merge unions two attribute trees without mutating either side. For a key
// present in both trees:
//
//   - two leaves keep the one with strictly greater confidence; on a tie the
//     incoming leaf wins, so a refinement at equal confidence still lands.
//   - two internal nodes merge recursively.
//   - a leaf/node mismatch resolves to the incoming side. Mismatches are not
//     expected from well-formed model output, but they must not crash a run.
//
// Repeated application across rounds never drops a previously accepted leaf:
// a base leaf is only replaced by an incoming leaf of equal or higher
// confidence.
func Merge(base, incoming *model.Tree) *model.Tree {
	if incoming == nil {
		return base.Clone()
	}
	if base == nil {
		return incoming.Clone()
	}

	if base.IsLeaf() && incoming.IsLeaf() {
		if incoming.Leaf.Confidence >= base.Leaf.Confidence {
			return incoming.Clone()
		}
		return base.Clone()
	}

	if base.IsLeaf() != incoming.IsLeaf() {
		return incoming.Clone()
	}

	merged := model.NewNode()
	for key, baseChild := range base.Children {
		if incomingChild, ok := incoming.Children[key]; ok {
			merged.Children[key] = Merge(baseChild, incomingChild)
		} else {
			merged.Children[key] = baseChild.Clone()
		}
	}
	for key, incomingChild := range incoming.Children {
		if _, ok := base.Children[key]; !ok {
			merged.Children[key] = incomingChild.Clone()
		}
	}
	return merged
}
