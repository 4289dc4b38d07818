// Package service orchestrates the two phases of the application: building
// (or reusing) the vector index, and answering interactive queries against it.
package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"raglite/internal/chunker"
	"raglite/internal/collector"
	"raglite/internal/domain"
	"raglite/internal/embedding"
	"raglite/internal/indexcache"
	"raglite/internal/vectorindex"
)

// promptTemplate assembles the final prompt: system instruction, retrieved
// context in descending-score order, then the literal query.
const promptTemplate = "You are an expert Q&A system. Answer the user's query using the provided context information.\n" +
	"Context information:\n" +
	"%s\n" +
	"Query: %s"

// QueryResponse is the outcome of one query turn.
type QueryResponse struct {
	Query        string
	Results      []domain.SearchResult
	Prompt       string
	PromptTokens int
	Answer       string
}

// Engine wires the pipeline together. The build phase owns index
// construction and the persisted files; the query phase only reads them.
type Engine struct {
	collector *collector.Collector
	chunker   *chunker.Chunker
	client    embedding.Client
	generator domain.Generator
	cache     *indexcache.Cache
	saveDir   string
	log       *zap.Logger

	index    *vectorindex.Flat
	embedder *embedding.Embedder
}

// New creates an Engine. EnsureIndex must run before Query.
func New(
	col *collector.Collector,
	ch *chunker.Chunker,
	client embedding.Client,
	gen domain.Generator,
	cache *indexcache.Cache,
	saveDir string,
	log *zap.Logger,
) *Engine {
	return &Engine{
		collector: col,
		chunker:   ch,
		client:    client,
		generator: gen,
		cache:     cache,
		saveDir:   saveDir,
		log:       log,
	}
}

// EnsureIndex loads the persisted index when the cache says it is still
// fresh, and rebuilds it otherwise.
func (e *Engine) EnsureIndex(ctx context.Context) error {
	if e.cache.Fresh() {
		idx, err := vectorindex.Load(e.saveDir)
		if err == nil {
			e.log.Info("index loaded",
				zap.Int("entries", idx.Len()), zap.String("dir", e.saveDir))
			return e.adopt(idx)
		}
		e.log.Warn("persisted index unreadable, rebuilding", zap.Error(err))
	}
	return e.Build(ctx)
}

// Build runs the full ingestion pipeline and persists the result: index
// binary and document list first, staleness marker last. Sequential by
// design; sources, chunks, and embeddings are processed one at a time.
func (e *Engine) Build(ctx context.Context) error {
	emb, err := embedding.New(ctx, e.client)
	if err != nil {
		return err
	}
	idx, err := vectorindex.NewFlat(emb.Dimension())
	if err != nil {
		return err
	}
	for doc, err := range e.collector.Documents(ctx) {
		if err != nil {
			return err
		}
		for chunk := range e.chunker.Chunks(doc.Text) {
			vec, err := emb.Embed(ctx, chunk)
			if err != nil {
				return fmt.Errorf("embedding chunk of %s: %w", doc.Origin, err)
			}
			if err := idx.Add(vec, chunk); err != nil {
				return err
			}
		}
	}
	if err := vectorindex.Save(e.saveDir, idx); err != nil {
		return err
	}
	if err := e.cache.WriteMarker(); err != nil {
		return fmt.Errorf("writing hash marker: %w", err)
	}
	e.log.Info("index built and saved",
		zap.Int("entries", idx.Len()), zap.String("dir", e.saveDir))
	e.index = idx
	e.embedder = emb
	return nil
}

func (e *Engine) adopt(idx *vectorindex.Flat) error {
	emb, err := embedding.NewWithDimension(e.client, idx.Dim())
	if err != nil {
		return err
	}
	e.index = idx
	e.embedder = emb
	return nil
}

// Len returns the number of entries in the active index.
func (e *Engine) Len() int {
	if e.index == nil {
		return 0
	}
	return e.index.Len()
}

// Query runs one query turn: embed, retrieve top-k, assemble the prompt,
// report its token count, and ask the completion service. A failure aborts
// only this turn; the index is read-only here and stays consistent.
func (e *Engine) Query(ctx context.Context, query string, k int) (*QueryResponse, error) {
	if e.index == nil {
		return nil, fmt.Errorf("no index loaded")
	}
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := e.index.Search(vec, k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	prompt := fmt.Sprintf(promptTemplate, strings.Join(texts, "\n"), query)

	tokens, err := e.generator.Tokenize(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("tokenizing prompt: %w", err)
	}
	answer, err := e.generator.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completing prompt: %w", err)
	}
	return &QueryResponse{
		Query:        query,
		Results:      results,
		Prompt:       prompt,
		PromptTokens: len(tokens),
		Answer:       answer,
	}, nil
}
