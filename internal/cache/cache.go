// Package cache memoizes an expensive pipeline stage to disk, keyed on a
// hash of its inputs, so repeated runs over an unchanged scene and
// configuration skip straight to the cached result. The engine uses it for
// the trace stage's visibility masks only.
package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Cache is a directory-backed store of gob-encoded values.
type Cache struct {
	dir string
}

// New returns a cache rooted at dir (created lazily on first Save).
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Key identifies one memoized computation by the sha256 of its gob-encoded
// arguments.
type Key struct {
	dir string
	sum string
}

// MakeKey hashes args (order-sensitive) into a Key.
func (c *Cache) MakeKey(args ...any) (*Key, error) {
	h := sha256.New()
	enc := gob.NewEncoder(h)
	for _, arg := range args {
		if err := enc.Encode(arg); err != nil {
			return nil, err
		}
	}
	return &Key{dir: c.dir, sum: hex.EncodeToString(h.Sum(nil))}, nil
}

func (k *Key) path() string {
	return filepath.Join(k.dir, k.sum)
}

// Load decodes the cached value into out, reporting whether a cache entry
// existed and decoded cleanly.
func (k *Key) Load(out any) bool {
	f, err := os.Open(k.path())
	if err != nil {
		return false
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(out) == nil
}

// Save writes val to the cache, logging (not failing) on error: a cache
// miss is always safe, just slower.
func (k *Key) Save(log *zap.Logger, val any) {
	if err := os.MkdirAll(k.dir, 0o777); err != nil {
		log.Warn("cache: could not create cache dir", zap.String("dir", k.dir), zap.Error(err))
		return
	}
	f, err := os.Create(k.path())
	if err != nil {
		log.Warn("cache: could not create cache entry", zap.Error(err))
		return
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(val); err != nil {
		log.Warn("cache: could not encode cache entry", zap.Error(err))
	}
}
