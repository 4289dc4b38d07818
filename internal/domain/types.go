package domain

import "context"

// RawDocument is a single ingested source: a fetched URL or a local file,
// paired with its extracted plain text.
type RawDocument struct {
	Origin string
	Text   string
}

// SearchResult is one retrieved index entry with its similarity score.
// Index is the entry's insertion position in the vector index.
type SearchResult struct {
	Text  string
	Score float32
	Index int
}

// Embedder converts free text into a unit-norm vector matching the index
// dimension. A dimension disagreement with the service output is an error.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Generator is the completion side of the model service.
type Generator interface {
	// Tokenize returns the token ids for text; used for prompt-length reporting.
	Tokenize(ctx context.Context, text string) ([]int, error)
	// Complete submits a prompt and returns the generated answer.
	Complete(ctx context.Context, prompt string) (string, error)
}
