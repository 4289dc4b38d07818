package main

import (
	"context"
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"raglite/internal/chunker"
	"raglite/internal/collector"
	"raglite/internal/config"
	"raglite/internal/domain"
	"raglite/internal/embedding"
	"raglite/internal/embedding/llamafile"
	"raglite/internal/embedding/openai"
	"raglite/internal/indexcache"
	"raglite/internal/service"
	"raglite/internal/tui"
	"raglite/internal/watcher"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var topK int
	var watch bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/raglite/config.yaml if not provided)")
	flag.IntVar(&topK, "k", 0, "Number of search results to add to the prompt (overrides config)")
	flag.BoolVar(&watch, "watch", false, "Watch local source directories and flag the index as stale on changes")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if topK <= 0 {
		topK = cfg.Search.TopK
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	timeout := time.Duration(cfg.Service.TimeoutSecs) * time.Second
	llama := llamafile.NewClient(llamafile.Config{
		EmbeddingURL:  cfg.Service.EmbeddingURL,
		GenerationURL: cfg.Service.GenerationURL,
		Timeout:       timeout,
	})

	// Assemble components
	var embClient embedding.Client
	switch cfg.Embedder.Type {
	case "llamafile", "":
		embClient = llama
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			logger.Fatal("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
		})
		if err != nil {
			logger.Fatal("openai embedder init failed", zap.Error(err))
		}
		embClient = client
	default:
		logger.Fatal("unknown embedder", zap.String("type", cfg.Embedder.Type))
	}
	var gen domain.Generator = llama

	col := collector.New(collector.Config{
		URLs:     cfg.Index.URLs,
		DataDirs: cfg.Index.DataDirs,
		Timeout:  timeout,
	}, logger)
	ch := chunker.New(cfg.Index.ChunkLen, cfg.Index.ModelMaxLen)
	cache := indexcache.New(cfg.Index.SaveDir, cfg.Index.DataDirs, logger)
	eng := service.New(col, ch, embClient, gen, cache, cfg.Index.SaveDir, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.EnsureIndex(ctx); err != nil {
		logger.Fatal("index build failed", zap.Error(err))
	}

	var changes <-chan watcher.Event
	if watch || cfg.Watch {
		w, err := watcher.New(cfg.Index.DataDirs, logger)
		if err != nil {
			logger.Fatal("watcher init failed", zap.Error(err))
		}
		defer w.Close()
		changes = w.Events(ctx)
	}

	m := tui.New(eng, eng.Len(), topK, changes)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		logger.Fatal("session failed", zap.Error(err))
	}
}
