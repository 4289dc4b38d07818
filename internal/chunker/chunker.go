package chunker

import (
	"iter"
	"strings"
	"unicode"
)

// DefaultOverlap is the number of runes consecutive chunks of the same
// document share, so that context spanning a chunk boundary survives.
const DefaultOverlap = 40

// Chunker splits a text into bounded segments. Splitting prefers semantic
// boundaries, trying paragraph breaks first, then line breaks, then sentence
// ends, then word boundaries, before falling back to a hard cut at the limit.
type Chunker struct {
	limit   int
	overlap int
}

// New creates a Chunker whose effective limit is chunkLen when it is positive
// and below modelMaxLen, else modelMaxLen. Lengths are in runes.
func New(chunkLen, modelMaxLen int) *Chunker {
	limit := modelMaxLen
	if chunkLen > 0 && chunkLen < modelMaxLen {
		limit = chunkLen
	}
	if limit <= 0 {
		limit = 1
	}
	return &Chunker{limit: limit, overlap: DefaultOverlap}
}

// Limit returns the effective chunk length limit in runes.
func (c *Chunker) Limit() int { return c.limit }

// Chunks returns a lazy, finite sequence of chunks of text, each at most
// Limit() runes. Empty input yields no chunks; input within the limit yields
// exactly one.
func (c *Chunker) Chunks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		runes := []rune(strings.TrimSpace(text))
		if len(runes) == 0 {
			return
		}
		if len(runes) <= c.limit {
			yield(string(runes))
			return
		}
		start := 0
		for start < len(runes) {
			end := start + c.limit
			if end >= len(runes) {
				end = len(runes)
			} else {
				end = start + splitPoint(runes[start:end])
			}
			chunk := strings.TrimSpace(string(runes[start:end]))
			if chunk != "" {
				if !yield(chunk) {
					return
				}
			}
			if end == len(runes) {
				return
			}
			next := end - c.overlap
			if next <= start {
				next = end
			}
			start = next
		}
	}
}

// splitPoint picks the cut position inside window, preferring the latest
// paragraph break, then line break, then sentence end, then space. Falls back
// to the full window length (hard cut).
func splitPoint(window []rune) int {
	if cut := lastParagraphBreak(window); cut > 0 {
		return cut
	}
	if cut := lastIndexRune(window, '\n'); cut > 0 {
		return cut + 1
	}
	if cut := lastSentenceEnd(window); cut > 0 {
		return cut
	}
	if cut := lastSpace(window); cut > 0 {
		return cut
	}
	return len(window)
}

func lastParagraphBreak(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == '\n' && window[i-1] == '\n' {
			return i + 1
		}
	}
	return 0
}

func lastSentenceEnd(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if !unicode.IsSpace(window[i]) {
			continue
		}
		switch window[i-1] {
		case '.', '!', '?':
			return i
		}
	}
	return 0
}

func lastSpace(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return 0
}

func lastIndexRune(window []rune, r rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == r {
			return i
		}
	}
	return -1
}
