package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardspec/extractor/internal/model"
)

func sampleTree() *model.Tree {
	tree := model.NewNode()
	tree.Children["name"] = model.NewLeaf("JETSON ORIN", 0.95)
	tree.Children["manufacturer"] = model.NewLeaf("NVIDIA", 0.6)
	tree.Children["price"] = model.NewLeaf(model.NotAvailable, 0)
	tree.Children["wireless"] = model.NewLeaf("not available", 0.4)

	mem := model.NewNode()
	mem.Children["size"] = model.NewLeaf("8GB", 0.9)
	mem.Children["type"] = model.NewLeaf("LPDDR5", 0.3)
	tree.Children["memory"] = mem
	return tree
}

func TestFindMissing(t *testing.T) {
	missing := FindMissing(sampleTree())

	// Zero confidence and the case-insensitive sentinel both count.
	assert.Equal(t, []string{"price", "wireless"}, missing)
}

func TestFindLowConfidence(t *testing.T) {
	low := FindLowConfidence(sampleTree(), 0.7)

	assert.Equal(t, []string{"manufacturer", "memory.type"}, low)
}

func TestMissingAndLowConfidenceDisjoint(t *testing.T) {
	tree := sampleTree()
	missing := FindMissing(tree)
	low := FindLowConfidence(tree, 0.7)

	seen := map[string]bool{}
	for _, p := range missing {
		seen[p] = true
	}
	for _, p := range low {
		assert.False(t, seen[p], "path %q classified as both missing and low confidence", p)
	}
}

func TestProjectByConfidence(t *testing.T) {
	got := ProjectByConfidence(sampleTree(), 0.7)

	want := map[string]any{
		"name":         "JETSON ORIN",
		"manufacturer": "Not Available",
		"price":        "Not Available",
		"wireless":     "Not Available",
		"memory": map[string]any{
			"size": "8GB",
			"type": "Not Available",
		},
	}
	assert.Equal(t, want, got)
}

func TestProjectByConfidenceNilTree(t *testing.T) {
	assert.Equal(t, map[string]any{}, ProjectByConfidence(nil, 0.7))
}

func TestBuildSkeleton(t *testing.T) {
	skeleton := BuildSkeleton([]string{"price", "memory.size", "memory.type"})

	price := skeleton.Lookup("price")
	require.NotNil(t, price)
	assert.Equal(t, model.NotAvailable, price.Value)
	assert.Zero(t, price.Confidence)

	require.NotNil(t, skeleton.Lookup("memory.size"))
	require.NotNil(t, skeleton.Lookup("memory.type"))
	assert.Nil(t, skeleton.Lookup("name"), "unrequested paths stay out")
}

func TestSubsetCopiesCurrentLeaves(t *testing.T) {
	tree := sampleTree()
	sub := Subset(tree, []string{"manufacturer", "memory.type", "no.such.path"})

	m := sub.Lookup("manufacturer")
	require.NotNil(t, m)
	assert.Equal(t, "NVIDIA", m.Value)
	assert.InDelta(t, 0.6, m.Confidence, 1e-9)

	require.NotNil(t, sub.Lookup("memory.type"))
	assert.Nil(t, sub.Lookup("no.such.path"))
	assert.Nil(t, sub.Lookup("name"))
}
