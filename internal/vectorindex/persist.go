package vectorindex

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

const (
	// IndexFile holds the serialized vectors.
	IndexFile = "index.bin"
	// DocsFile holds the chunk texts as an ordered JSON array; position i
	// corresponds to stored vector i.
	DocsFile = "docs.json"

	indexMagic = uint32(0x52414731) // "RAG1"
)

// Save writes both index artifacts under dir. Each artifact is written to a
// temporary sibling and published with a rename, so a crash mid-save never
// leaves a torn file.
func Save(dir string, f *Flat) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, IndexFile), f.encode()); err != nil {
		return fmt.Errorf("writing %s: %w", IndexFile, err)
	}
	docs, err := json.Marshal(f.docs)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, DocsFile), docs); err != nil {
		return fmt.Errorf("writing %s: %w", DocsFile, err)
	}
	return nil
}

// Load reads a persisted index from dir. Both artifacts must be present and
// agree on the entry count; a lone artifact is ErrCorrupt, an absent pair is
// ErrNotFound.
func Load(dir string) (*Flat, error) {
	indexData, indexErr := os.ReadFile(filepath.Join(dir, IndexFile))
	docsData, docsErr := os.ReadFile(filepath.Join(dir, DocsFile))
	switch {
	case os.IsNotExist(indexErr) && os.IsNotExist(docsErr):
		return nil, fmt.Errorf("%w at %s", ErrNotFound, dir)
	case os.IsNotExist(indexErr):
		return nil, fmt.Errorf("%w: %s present but %s missing", ErrCorrupt, DocsFile, IndexFile)
	case os.IsNotExist(docsErr):
		return nil, fmt.Errorf("%w: %s present but %s missing", ErrCorrupt, IndexFile, DocsFile)
	case indexErr != nil:
		return nil, indexErr
	case docsErr != nil:
		return nil, docsErr
	}

	f, err := decode(indexData)
	if err != nil {
		return nil, err
	}
	var docs []string
	if err := json.Unmarshal(docsData, &docs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, DocsFile, err)
	}
	if len(docs) != len(f.vectors) {
		return nil, fmt.Errorf("%w: %d documents for %d vectors", ErrCorrupt, len(docs), len(f.vectors))
	}
	f.docs = docs
	return f, nil
}

// encode lays the index out as little-endian: magic, dim, n, then n*dim
// float32 values.
func (f *Flat) encode() []byte {
	out := make([]byte, 12, 12+4*f.dim*len(f.vectors))
	binary.LittleEndian.PutUint32(out[0:4], indexMagic)
	binary.LittleEndian.PutUint32(out[4:8], uint32(f.dim))
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(f.vectors)))
	buf := make([]byte, 4)
	for _, vec := range f.vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
			out = append(out, buf...)
		}
	}
	return out
}

func decode(data []byte) (*Flat, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: %s truncated", ErrCorrupt, IndexFile)
	}
	if binary.LittleEndian.Uint32(data[0:4]) != indexMagic {
		return nil, fmt.Errorf("%w: %s has wrong magic", ErrCorrupt, IndexFile)
	}
	dim := int(binary.LittleEndian.Uint32(data[4:8]))
	n := int(binary.LittleEndian.Uint32(data[8:12]))
	if dim <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension %d", ErrCorrupt, dim)
	}
	if len(data) != 12+4*dim*n {
		return nil, fmt.Errorf("%w: %s has %d bytes, want %d", ErrCorrupt, IndexFile, len(data), 12+4*dim*n)
	}
	vectors := make([][]float32, n)
	off := 12
	for i := 0; i < n; i++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vectors[i] = vec
	}
	return &Flat{dim: dim, vectors: vectors}, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Join(err, os.Remove(tmp))
	}
	return nil
}
