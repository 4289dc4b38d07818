// Package collector produces raw documents from configured URLs and local
// directories, in source-declared order: URLs first, then directories.
//
// The two source kinds fail differently. URL fetches are best effort: any
// network or status failure is logged and the URL skipped, so one bad remote
// source never aborts a build. Local paths are configured by the operator and
// assumed valid, so read and parse errors propagate and abort the build.
package collector

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"raglite/internal/domain"
)

// Config configures a Collector.
type Config struct {
	URLs     []string
	DataDirs []string
	Timeout  time.Duration
}

// Collector yields RawDocuments from the configured sources.
type Collector struct {
	urls   []string
	dirs   []string
	client *http.Client
	log    *zap.Logger
}

// New creates a Collector.
func New(cfg Config, log *zap.Logger) *Collector {
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Collector{
		urls:   cfg.URLs,
		dirs:   cfg.DataDirs,
		client: &http.Client{Timeout: t},
		log:    log,
	}
}

// Documents returns a lazy, finite, non-restartable sequence of documents.
// A non-nil error item means a local source failed; iteration stops there and
// the caller should abort the build. Failed URLs never surface as items.
func (c *Collector) Documents(ctx context.Context) iter.Seq2[domain.RawDocument, error] {
	return func(yield func(domain.RawDocument, error) bool) {
		for _, url := range c.urls {
			text, err := c.fetchURL(ctx, url)
			if err != nil {
				c.log.Warn("skipping url", zap.String("url", url), zap.Error(err))
				continue
			}
			if !yield(domain.RawDocument{Origin: url, Text: text}, nil) {
				return
			}
		}
		for _, dir := range c.dirs {
			texts, pdfs, err := listFiles(dir)
			if err != nil {
				yield(domain.RawDocument{}, fmt.Errorf("listing %s: %w", dir, err))
				return
			}
			for _, path := range texts {
				data, err := os.ReadFile(path)
				if err != nil {
					yield(domain.RawDocument{}, fmt.Errorf("reading %s: %w", path, err))
					return
				}
				if !yield(domain.RawDocument{Origin: path, Text: string(data)}, nil) {
					return
				}
			}
			for _, path := range pdfs {
				text, err := extractPDF(path)
				if err != nil {
					yield(domain.RawDocument{}, fmt.Errorf("parsing %s: %w", path, err))
					return
				}
				if !yield(domain.RawDocument{Origin: path, Text: text}, nil) {
					return
				}
			}
		}
	}
}

// fetchURL downloads a page and strips markup down to its visible text.
func (c *Collector) fetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return visibleText(resp.Body)
}

// listFiles walks dir recursively and returns the plain-text and PDF file
// paths, each group in walk order.
func listFiles(dir string) (texts, pdfs []string, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt":
			texts = append(texts, path)
		case ".pdf":
			pdfs = append(pdfs, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return texts, pdfs, nil
}
