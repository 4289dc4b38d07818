// Package vectorindex implements an exact inner-product vector index over
// L2-normalized vectors, with the stored document texts kept in a parallel
// slice so that entry i always refers to the same chunk in both.
package vectorindex

import (
	"errors"
	"fmt"
	"sort"

	"raglite/internal/domain"
)

// ErrNotFound reports that no persisted index exists at the given location.
var ErrNotFound = errors.New("index not found")

// ErrCorrupt reports persisted index state that cannot be trusted: truncated
// artifacts, or artifacts that disagree with each other.
var ErrCorrupt = errors.New("corrupt index")

// Flat is an append-only brute-force index. Not safe for concurrent mutation;
// the build phase owns it exclusively, the query phase only reads.
type Flat struct {
	dim     int
	vectors [][]float32
	docs    []string
}

// NewFlat creates an empty index of the given dimension.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid index dimension %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Dim returns the index dimension.
func (f *Flat) Dim() int { return f.dim }

// Len returns the number of stored entries.
func (f *Flat) Len() int { return len(f.vectors) }

// Add appends a vector and its chunk text to the end of the index.
func (f *Flat) Add(vec []float32, text string) error {
	if len(vec) != f.dim {
		return fmt.Errorf("vector dimension %d does not match index dimension %d", len(vec), f.dim)
	}
	f.vectors = append(f.vectors, vec)
	f.docs = append(f.docs, text)
	return nil
}

// Document returns the chunk text stored at entry i.
func (f *Flat) Document(i int) string { return f.docs[i] }

// Search returns up to k entries with the highest inner product against
// query, in non-increasing score order. Ties keep the lower insertion index
// first. An empty index returns an empty result set.
func (f *Flat) Search(query []float32, k int) ([]domain.SearchResult, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), f.dim)
	}
	if len(f.vectors) == 0 || k <= 0 {
		return nil, nil
	}
	idxs := make([]int, len(f.vectors))
	scores := make([]float32, len(f.vectors))
	for i, v := range f.vectors {
		idxs[i] = i
		scores[i] = dot(query, v)
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]domain.SearchResult, k)
	for i := 0; i < k; i++ {
		j := idxs[i]
		results[i] = domain.SearchResult{
			Text:  f.docs[j],
			Score: scores[j],
			Index: j,
		}
	}
	return results, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
