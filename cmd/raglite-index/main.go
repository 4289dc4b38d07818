// raglite-index builds the vector index without starting a query session.
// Useful for pre-building on a schedule or in CI.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"raglite/internal/chunker"
	"raglite/internal/collector"
	"raglite/internal/config"
	"raglite/internal/embedding"
	"raglite/internal/embedding/llamafile"
	"raglite/internal/embedding/openai"
	"raglite/internal/indexcache"
	"raglite/internal/service"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var force bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/raglite/config.yaml if not provided)")
	flag.BoolVar(&force, "force", false, "Rebuild even when the persisted index is fresh")
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

	col := collector.New(collector.Config{
		URLs:     cfg.Index.URLs,
		DataDirs: cfg.Index.DataDirs,
		Timeout:  timeout,
	}, logger)
	ch := chunker.New(cfg.Index.ChunkLen, cfg.Index.ModelMaxLen)
	cache := indexcache.New(cfg.Index.SaveDir, cfg.Index.DataDirs, logger)
	eng := service.New(col, ch, embClient, llama, cache, cfg.Index.SaveDir, logger)

	ctx := context.Background()
	if force {
		err = eng.Build(ctx)
	} else {
		err = eng.EnsureIndex(ctx)
	}
	if err != nil {
		logger.Fatal("index build failed", zap.Error(err))
	}
	logger.Info("done", zap.Int("entries", eng.Len()))
}
