package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ProbeText is the deterministic input used to establish the index dimension
// at build start.
const ProbeText = "Apples are red."

// ErrDimensionMismatch reports an embedding whose dimensionality differs from
// the one established for the index. The index cannot mix dimensions, so this
// is fatal to the operation in progress.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Client is the raw embedding side of the external model service.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedder wraps a Client, pinning every embedding to a fixed dimension and
// L2-normalizing it so that inner product equals cosine similarity.
type Embedder struct {
	client Client
	dim    int
}

// New probes the service with ProbeText to establish the embedding dimension.
func New(ctx context.Context, client Client) (*Embedder, error) {
	probe, err := client.Embed(ctx, ProbeText)
	if err != nil {
		return nil, fmt.Errorf("probing embedding dimension: %w", err)
	}
	if len(probe) == 0 {
		return nil, errors.New("probing embedding dimension: empty vector from service")
	}
	return &Embedder{client: client, dim: len(probe)}, nil
}

// NewWithDimension pins the embedder to a known dimension, typically the one
// recorded in a loaded index.
func NewWithDimension(client Client, dim int) (*Embedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}
	return &Embedder{client: client, dim: dim}, nil
}

// Dimension returns the pinned embedding dimension.
func (e *Embedder) Dimension() int { return e.dim }

// Embed calls the service once and normalizes the result in place.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.client.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, errors.New("empty embedding from service")
	}
	if len(vec) != e.dim {
		return nil, fmt.Errorf("%w: service returned %d, index uses %d", ErrDimensionMismatch, len(vec), e.dim)
	}
	normalize(vec)
	return vec, nil
}

// normalize scales v to unit L2 norm. Zero vectors are left unchanged.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
