package docstore

import "strings"

const (
	defaultChunkWords   = 200
	defaultChunkOverlap = 40
)

// SplitChunks splits text into word windows of size words with overlap words
// shared between consecutive chunks. Texts shorter than one window come back
// as a single chunk; empty or whitespace-only text yields nothing.
func SplitChunks(text string, size, overlap int) []string {
	if size <= 0 {
		size = defaultChunkWords
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= size {
		return []string{strings.Join(words, " ")}
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
