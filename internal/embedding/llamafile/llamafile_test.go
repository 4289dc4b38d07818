package llamafile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/embedding", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Content string `json:"content"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Content)
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2, 0.3}})
	})
	mux.HandleFunc("/tokenize", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"tokens": []int{5, 7, 11}})
	})
	mux.HandleFunc("/completion", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(map[string]any{"content": "echo: " + req.Prompt})
	})
	return httptest.NewServer(mux)
}

func newTestClient(url string) *Client {
	return NewClient(Config{EmbeddingURL: url, GenerationURL: url})
}

func TestEmbed(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	vec, err := newTestClient(srv.URL).Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestTokenize(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	tokens, err := newTestClient(srv.URL).Tokenize(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 7, 11}, tokens)
}

func TestComplete(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	answer, err := newTestClient(srv.URL).Complete(context.Background(), "why?")
	require.NoError(t, err)
	assert.Equal(t, "echo: why?", answer)
}

func TestNon2xxStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Embed(context.Background(), "x")
	assert.Error(t, err)
	_, err = client.Tokenize(context.Background(), "x")
	assert.Error(t, err)
	_, err = client.Complete(context.Background(), "x")
	assert.Error(t, err)
}

func TestMalformedResponseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestEmptyEmbeddingIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{}})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestUnreachableServiceIsError(t *testing.T) {
	client := NewClient(Config{
		EmbeddingURL:  "http://127.0.0.1:1",
		GenerationURL: "http://127.0.0.1:1",
	})
	_, err := client.Embed(context.Background(), "x")
	assert.Error(t, err)
}
