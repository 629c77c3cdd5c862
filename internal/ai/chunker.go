package ai

import (
	"regexp"
)

var tokenRegex = regexp.MustCompile(`\S+`)

const DefaultChunkSize = 4000

// SplitTextChunks splits text into chunks of at most maxChars characters,
// breaking on whitespace so no word is cut mid-token. Returns the original
// text as a single chunk when it fits.
func SplitTextChunks(text string, maxChars int) []string {
	if len(text) <= maxChars {
		return []string{text}
	}

	idxs := tokenRegex.FindAllStringIndex(text, -1)
	if len(idxs) == 0 {
		return []string{text}
	}

	var chunks []string
	chunkStart := idxs[0][0]
	lastEnd := idxs[0][1]

	for _, idx := range idxs[1:] {
		if idx[1]-chunkStart > maxChars {
			chunks = append(chunks, text[chunkStart:lastEnd])
			chunkStart = idx[0]
		}
		lastEnd = idx[1]
	}
	chunks = append(chunks, text[chunkStart:lastEnd])

	return chunks
}
