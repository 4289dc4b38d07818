package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.Index.ChunkLen)
	assert.Equal(t, 512, cfg.Index.ModelMaxLen)
	assert.Equal(t, "index", cfg.Index.SaveDir)
	assert.Equal(t, "llamafile", cfg.Embedder.Type)
	assert.Equal(t, "http://localhost:8080", cfg.Service.EmbeddingURL)
	assert.Equal(t, "http://localhost:8081", cfg.Service.GenerationURL)
	assert.Equal(t, 120, cfg.Service.TimeoutSecs)
	assert.Equal(t, 3, cfg.Search.TopK)
	assert.False(t, cfg.Watch)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
index:
  chunk_len: 128
  data_dirs:
    - data
search:
  top_k: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 128, cfg.Index.ChunkLen)
	assert.Equal(t, []string{"data"}, cfg.Index.DataDirs)
	assert.Equal(t, 512, cfg.Index.ModelMaxLen)
	assert.Equal(t, "index", cfg.Index.SaveDir)
	assert.Equal(t, 3, cfg.Search.TopK)
	assert.Equal(t, 120, cfg.Service.TimeoutSecs)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index: [not a mapping"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestOpenAIEmbedderDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
embedder:
  type: openai
  openai:
    base_url: http://localhost:9090/v1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "http://localhost:9090/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Index.URLs = []string{"https://example.com/doc"}
	cfg.Watch = true
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
