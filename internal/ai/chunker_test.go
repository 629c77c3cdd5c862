package ai_test

import (
	"strings"
	"testing"

	"thinkink-backend/internal/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextChunksShortText(t *testing.T) {
	text := "fits in one chunk"
	assert.Equal(t, []string{text}, ai.SplitTextChunks(text, ai.DefaultChunkSize))
}

func TestSplitTextChunks(t *testing.T) {
	text := "alpha beta gamma delta epsilon"
	chunks := ai.SplitTextChunks(text, 11)

	assert.Equal(t, []string{"alpha beta", "gamma delta", "epsilon"}, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 11)
	}

	assert.Equal(t, text, strings.Join(chunks, " "), "no words should be lost or cut")
}

func TestSplitTextChunksOversizedWord(t *testing.T) {
	chunks := ai.SplitTextChunks("supercalifragilistic a b", 10)

	// A single word longer than the limit is kept whole rather than cut.
	require.Len(t, chunks, 2)
	assert.Equal(t, "supercalifragilistic", chunks[0])
	assert.Equal(t, "a b", chunks[1])
}

func TestSplitTextChunksWhitespaceOnly(t *testing.T) {
	text := strings.Repeat(" ", 20)
	assert.Equal(t, []string{text}, ai.SplitTextChunks(text, 5))
}
