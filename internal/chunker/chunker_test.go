package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(c *Chunker, text string) []string {
	var out []string
	for chunk := range c.Chunks(text) {
		out = append(out, chunk)
	}
	return out
}

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, 100, New(100, 512).Limit())
	assert.Equal(t, 512, New(0, 512).Limit())
	assert.Equal(t, 512, New(600, 512).Limit())
	assert.Equal(t, 512, New(-1, 512).Limit())
}

func TestShortTextSingleChunk(t *testing.T) {
	chunks := collect(New(100, 512), "just a short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a short text", chunks[0])
}

func TestEmptyTextNoChunks(t *testing.T) {
	assert.Empty(t, collect(New(100, 512), ""))
	assert.Empty(t, collect(New(100, 512), "   \n\t  "))
}

func TestNoChunkExceedsLimit(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40)
	c := New(120, 512)
	chunks := collect(c, text)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), c.Limit())
		assert.NotEmpty(t, chunk)
	}
}

func TestHardCutOverlap(t *testing.T) {
	// No split boundaries at all forces hard cuts; consecutive chunks must
	// then share exactly the overlap span.
	text := strings.Repeat("a", 250)
	chunks := collect(New(100, 512), text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		tail := string(prev[len(prev)-DefaultOverlap:])
		head := string(cur[:DefaultOverlap])
		assert.Equal(t, tail, head, "chunks %d and %d", i-1, i)
	}
}

func TestPrefersParagraphBreak(t *testing.T) {
	para1 := strings.TrimSpace(strings.Repeat("alpha ", 10))
	para2 := strings.TrimSpace(strings.Repeat("beta ", 10))
	chunks := collect(New(80, 512), para1+"\n\n"+para2)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, para1, chunks[0])
}

func TestPrefersSentenceBoundary(t *testing.T) {
	text := "Apples are red. Bananas are yellow. Cherries are dark."
	chunks := collect(New(40, 512), text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Apples are red. Bananas are yellow.", chunks[0])
	assert.Equal(t, "Cherries are dark.", chunks[1])
}

func TestWordBoundaryFallback(t *testing.T) {
	// No paragraphs or sentence ends, so cuts land on spaces: every chunk
	// must end with a complete word.
	words := map[string]bool{"somewhat": true, "longish": true, "words": true, "here": true}
	text := strings.TrimSpace(strings.Repeat("somewhat longish words here ", 20))
	chunks := collect(New(50, 512), text)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		fields := strings.Fields(chunk)
		require.NotEmpty(t, fields)
		assert.True(t, words[fields[len(fields)-1]], "severed word at chunk end: %q", chunk)
	}
}
