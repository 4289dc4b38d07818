package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clientFunc func(ctx context.Context, text string) ([]float32, error)

func (f clientFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

func TestNewProbesDimension(t *testing.T) {
	var probed string
	client := clientFunc(func(_ context.Context, text string) ([]float32, error) {
		probed = text
		return []float32{1, 2, 3, 4}, nil
	})
	emb, err := New(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, ProbeText, probed)
	assert.Equal(t, 4, emb.Dimension())
}

func TestNewPropagatesServiceError(t *testing.T) {
	client := clientFunc(func(context.Context, string) ([]float32, error) {
		return nil, errors.New("connection refused")
	})
	_, err := New(context.Background(), client)
	assert.Error(t, err)
}

func TestEmbedNormalizes(t *testing.T) {
	client := clientFunc(func(context.Context, string) ([]float32, error) {
		return []float32{3, 4}, nil
	})
	emb, err := New(context.Background(), client)
	require.NoError(t, err)

	vec, err := emb.Embed(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, vec, 2)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestEmbedDimensionMismatchIsFatal(t *testing.T) {
	calls := 0
	client := clientFunc(func(context.Context, string) ([]float32, error) {
		calls++
		if calls == 1 {
			return []float32{1, 0}, nil
		}
		return []float32{1, 0, 0}, nil
	})
	emb, err := New(context.Background(), client)
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), "drifted")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNewWithDimension(t *testing.T) {
	client := clientFunc(func(context.Context, string) ([]float32, error) {
		return []float32{0, 2, 0}, nil
	})
	emb, err := NewWithDimension(client, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, emb.Dimension())

	vec, err := emb.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vec[1], 1e-6)

	_, err = NewWithDimension(client, 0)
	assert.Error(t, err)
}
