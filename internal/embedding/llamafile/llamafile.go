// Package llamafile is a minimal client for llamafile's HTTP API: /embedding
// on the embedding server, /tokenize and /completion on the generation server.
package llamafile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Config configures the llamafile client.
type Config struct {
	// EmbeddingURL is the base URL of the embedding server.
	EmbeddingURL string
	// GenerationURL is the base URL of the completion/tokenize server.
	GenerationURL string
	Timeout       time.Duration
}

// Client talks to a pair of llamafile servers.
type Client struct {
	embeddingURL  string
	generationURL string
	client        *http.Client
}

// NewClient creates a client with the provided configuration.
func NewClient(cfg Config) *Client {
	if cfg.EmbeddingURL == "" {
		cfg.EmbeddingURL = "http://localhost:8080"
	}
	if cfg.GenerationURL == "" {
		cfg.GenerationURL = "http://localhost:8081"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 120 * time.Second
	}
	return &Client{
		embeddingURL:  cfg.EmbeddingURL,
		generationURL: cfg.GenerationURL,
		client:        &http.Client{Timeout: t},
	}
}

// Embed requests an embedding for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	req := map[string]any{"content": text}
	if err := c.postJSON(ctx, c.embeddingURL+"/embedding", req, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("llamafile: no embedding returned")
	}
	return out.Embedding, nil
}

// Tokenize returns the token ids of text according to the generation model.
func (c *Client) Tokenize(ctx context.Context, text string) ([]int, error) {
	var out struct {
		Tokens []int `json:"tokens"`
	}
	req := map[string]any{"content": text}
	if err := c.postJSON(ctx, c.generationURL+"/tokenize", req, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

// Complete submits prompt to the generation model and returns the answer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	req := map[string]any{"prompt": prompt, "stream": false}
	if err := c.postJSON(ctx, c.generationURL+"/completion", req, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("llamafile: POST %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("llamafile: POST %s failed: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("llamafile: decoding %s response: %w", url, err)
	}
	return nil
}
