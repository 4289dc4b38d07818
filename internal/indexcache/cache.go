// Package indexcache decides whether a persisted index can be reused or must
// be rebuilt, based on content hashes of the configured local source
// directories.
package indexcache

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/mod/sumdb/dirhash"
)

// MarkerFile is the staleness marker: the per-directory content hashes of the
// last successful build, concatenated with no delimiter.
const MarkerFile = "last_hash.txt"

// Cache gates the build phase for one save directory.
//
// Known limitation, kept on purpose: Fresh checks each directory's current
// hash by substring containment against the whole marker content, not by
// exact equality over (directory, hash) pairs. One hash being a substring of
// another can skip a needed rebuild, and directories removed from the
// configuration are not detected as removed.
type Cache struct {
	saveDir  string
	dataDirs []string
	log      *zap.Logger
}

// New creates a cache for saveDir covering the configured local dataDirs.
func New(saveDir string, dataDirs []string, log *zap.Logger) *Cache {
	return &Cache{saveDir: saveDir, dataDirs: dataDirs, log: log}
}

// Fresh reports whether the persisted index may be reused. A missing save
// directory or marker, an unreadable directory, or any hash not found in the
// marker all force a rebuild.
func (c *Cache) Fresh() bool {
	if _, err := os.Stat(c.saveDir); err != nil {
		return false
	}
	marker, err := os.ReadFile(filepath.Join(c.saveDir, MarkerFile))
	if err != nil {
		c.log.Warn("index hash marker not found, rebuilding index",
			zap.String("dir", c.saveDir))
		return false
	}
	content := string(marker)
	for _, dir := range c.dataDirs {
		hash, err := hashDir(dir)
		if err != nil {
			c.log.Warn("hashing source directory failed, rebuilding index",
				zap.String("dir", dir), zap.Error(err))
			return false
		}
		if !strings.Contains(content, hash) {
			c.log.Warn("source directory hash mismatch, rebuilding index",
				zap.String("dir", dir))
			return false
		}
	}
	c.log.Info("index already exists, skipping build", zap.String("dir", c.saveDir))
	return true
}

// WriteMarker records the current hash of every configured directory,
// overwriting the previous marker. Called only after a fully successful
// build; published via rename so readers never see a torn marker.
func (c *Cache) WriteMarker() error {
	var sb strings.Builder
	for _, dir := range c.dataDirs {
		hash, err := hashDir(dir)
		if err != nil {
			return err
		}
		sb.WriteString(hash)
	}
	path := filepath.Join(c.saveDir, MarkerFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sb.String()), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// hashDir computes a content hash over every file under dir.
func hashDir(dir string) (string, error) {
	return dirhash.HashDir(dir, "", dirhash.DefaultHash)
}
