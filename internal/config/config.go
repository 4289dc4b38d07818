package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// IndexConfig describes what gets ingested and where the built index lives.
type IndexConfig struct {
	ChunkLen    int      `yaml:"chunk_len"`
	ModelMaxLen int      `yaml:"model_max_len"`
	URLs        []string `yaml:"urls"`
	DataDirs    []string `yaml:"data_dirs"`
	SaveDir     string   `yaml:"save_dir"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// EmbedderConfig selects and configures the embedding backend.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ServiceConfig holds the endpoints of the llamafile model services.
// The generation endpoint serves both completion and tokenize.
type ServiceConfig struct {
	EmbeddingURL  string `yaml:"embedding_url"`
	GenerationURL string `yaml:"generation_url"`
	TimeoutSecs   int    `yaml:"timeout_secs"`
}

// SearchConfig configures query-time retrieval.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Index    IndexConfig    `yaml:"index"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Service  ServiceConfig  `yaml:"service"`
	Search   SearchConfig   `yaml:"search"`
	Watch    bool           `yaml:"watch"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/raglite/config.yaml.
// If neither exists, it writes defaults to ~/.config/raglite/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "raglite", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Index: IndexConfig{
			ChunkLen:    256,
			ModelMaxLen: 512,
			SaveDir:     "index",
		},
		Embedder: EmbedderConfig{Type: "llamafile"},
		Service: ServiceConfig{
			EmbeddingURL:  "http://localhost:8080",
			GenerationURL: "http://localhost:8081",
			TimeoutSecs:   120,
		},
		Search: SearchConfig{TopK: 3},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Index.ModelMaxLen <= 0 {
		cfg.Index.ModelMaxLen = 512
	}
	if cfg.Index.SaveDir == "" {
		cfg.Index.SaveDir = "index"
	}
	if cfg.Service.EmbeddingURL == "" {
		cfg.Service.EmbeddingURL = "http://localhost:8080"
	}
	if cfg.Service.GenerationURL == "" {
		cfg.Service.GenerationURL = "http://localhost:8081"
	}
	if cfg.Service.TimeoutSecs <= 0 {
		cfg.Service.TimeoutSecs = 120
	}
	if cfg.Search.TopK <= 0 {
		cfg.Search.TopK = 3
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
	}
}
