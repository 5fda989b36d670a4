package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/corraxdev/corrax/internal/ir"
)

// schemaVersion namespaces the on-disk layout; bumping it invalidates
// every previously written entry without needing an explicit migration,
// since a new version simply reads from an empty directory.
const schemaVersion = "v1"

// diskTier is the persistent, compressed cache tier. Entries are
// namespaced by schema version and language, one file per key, matching
// the on-disk layout the core's external interface contract requires;
// compaction is left to the storage engine the CLI wires in, not this
// package.
type diskTier struct {
	root string
}

func newDiskTier(root string) *diskTier {
	return &diskTier{root: root}
}

func (d *diskTier) path(key ir.CacheKey) string {
	dir := filepath.Join(d.root, schemaVersion, key.File.Language)
	return filepath.Join(dir, key.String()+".lz4")
}

// Get reads and decompresses the entry for key, if present.
func (d *diskTier) Get(key ir.CacheKey) ([]byte, bool, error) {
	raw, err := os.ReadFile(d.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("cache: disk read: %w", err)
	}

	decompressed, err := decompress(raw)
	if err != nil {
		return nil, false, err
	}

	return decompressed, true, nil
}

// Put compresses and writes data for key, creating parent directories
// as needed.
func (d *diskTier) Put(key ir.CacheKey, data []byte) error {
	path := d.path(key)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cache: disk mkdir: %w", err)
	}

	compressed, err := compress(data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		return fmt.Errorf("cache: disk write: %w", err)
	}

	return nil
}

// Invalidate removes the entry for key, if present.
func (d *diskTier) Invalidate(key ir.CacheKey) error {
	err := os.Remove(d.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cache: disk invalidate: %w", err)
	}

	return nil
}

// compress lz4-block-compresses data, prefixing the result with the
// original length so decompress can size its output buffer without a
// frame header. Mirrors internal/rbtree's CompressUInt32Slice pattern,
// generalized from a fixed uint32 payload to arbitrary bytes.
func compress(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	out := make([]byte, lenPrefixSize+bound)
	putUint64(out, uint64(len(data)))

	n, err := lz4.CompressBlock(data, out[lenPrefixSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("cache: lz4 compress: %w", err)
	}

	if n == 0 && len(data) > 0 {
		return nil, errors.New("cache: lz4 compress: incompressible block reported zero bytes written")
	}

	return out[:lenPrefixSize+n], nil
}

func decompress(data []byte) ([]byte, error) {
	if len(data) < lenPrefixSize {
		return nil, errors.New("cache: disk entry too short")
	}

	originalLen := getUint64(data)
	out := make([]byte, originalLen)

	n, err := lz4.UncompressBlock(data[lenPrefixSize:], out)
	if err != nil {
		return nil, fmt.Errorf("cache: lz4 decompress: %w", err)
	}

	return out[:n], nil
}

const lenPrefixSize = 8

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}

	return v
}
