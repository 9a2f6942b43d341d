// Package cache stores compiled bytecode on disk, keyed by a digest of the
// source text, so unchanged scripts skip parsing and compilation.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/deepnoodle-ai/jsbox/bytecode"
)

// schemaVersion is bumped when the entry layout changes. Entries with a
// different version are treated as misses.
const schemaVersion uint16 = 1

// Key identifies a cache entry.
type Key [sha256.Size]byte

// KeyFor returns the key for a source file. The filename is part of the key
// because compiled code records it for error locations.
func KeyFor(filename, source string) Key {
	h := sha256.New()
	h.Write([]byte(filename))
	h.Write([]byte{0})
	h.Write([]byte(source))
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// String returns the key in hex.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// entry is the on-disk record.
type entry struct {
	Schema         uint16 `msgpack:"schema"`
	BytecodeSchema uint16 `msgpack:"bytecode_schema"`
	Filename       string `msgpack:"filename"`
	CreatedAt      int64  `msgpack:"created_at"`
	Code           []byte `msgpack:"code"`
}

// Cache is a directory of compiled entries. It is safe for concurrent use.
// A nil *Cache is a cache that never hits.
type Cache struct {
	mu     sync.RWMutex
	dir    string
	logger zerolog.Logger
}

// Open returns a cache rooted at dir, creating it if needed.
func Open(dir string, logger zerolog.Logger) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) pathFor(key Key) string {
	hexKey := key.String()
	return filepath.Join(c.dir, hexKey[:2], hexKey+".jsbc")
}

// Get returns the proto stored under key. Missing, stale and unreadable
// entries are misses; only I/O failures other than absence are errors.
func (c *Cache) Get(key Key) (*bytecode.FunctionProto, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: %w", err)
	}
	var e entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("discarding corrupt cache entry")
		return nil, false, nil
	}
	if e.Schema != schemaVersion || e.BytecodeSchema != bytecode.SchemaVersion {
		c.logger.Debug().Str("key", key.String()).Uint16("schema", e.Schema).Msg("stale cache entry")
		return nil, false, nil
	}
	proto, err := bytecode.Unmarshal(e.Code)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("discarding undecodable cache entry")
		return nil, false, nil
	}
	c.logger.Debug().Str("key", key.String()).Str("filename", e.Filename).Msg("cache hit")
	return proto, true, nil
}

// Put stores proto under key. The entry is written to a temporary file and
// renamed into place so readers never see a partial entry.
func (c *Cache) Put(key Key, filename string, proto *bytecode.FunctionProto) error {
	if c == nil {
		return nil
	}
	code, err := bytecode.Marshal(proto)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	data, err := msgpack.Marshal(&entry{
		Schema:         schemaVersion,
		BytecodeSchema: bytecode.SchemaVersion,
		Filename:       filename,
		CreatedAt:      time.Now().Unix(),
		Code:           code,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	c.logger.Debug().Str("key", key.String()).Str("filename", filename).Int("bytes", len(data)).Msg("cache store")
	return nil
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}
