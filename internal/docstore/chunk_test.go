package docstore

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSplitChunksShortTextSingleChunk(t *testing.T) {
	chunks := SplitChunks("just a few words", 200, 40)
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a few words", chunks[0])
}

func TestSplitChunksEmptyText(t *testing.T) {
	assert.Nil(t, SplitChunks("", 200, 40))
	assert.Nil(t, SplitChunks("   \n\t  ", 200, 40))
}

func TestSplitChunksOverlap(t *testing.T) {
	chunks := SplitChunks(wordText(25), 10, 3)
	require.Len(t, chunks, 4)

	// Consecutive chunks share the trailing words of the previous window.
	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	assert.Len(t, first, 10)
	assert.Equal(t, first[7:], second[:3])

	// Every word appears somewhere.
	all := strings.Join(chunks, " ")
	assert.Contains(t, all, "w0")
	assert.Contains(t, all, "w24")
}

func TestSplitChunksNormalizesWhitespace(t *testing.T) {
	chunks := SplitChunks("a\tb\n\nc   d", 200, 40)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a b c d", chunks[0])
}

func TestSplitChunksDefaultsOnBadParameters(t *testing.T) {
	// A zero size falls back to the default window; text shorter than
	// that default is one chunk either way.
	chunks := SplitChunks(wordText(50), 0, -1)
	require.Len(t, chunks, 1)

	// Overlap >= size would loop forever if taken literally.
	chunks = SplitChunks(wordText(30), 10, 10)
	assert.NotEmpty(t, chunks)
}
