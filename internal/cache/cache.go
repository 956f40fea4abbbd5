// Package cache stores fetched images and transcripts keyed by a namespaced
// hash of their source.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

// Namespaces keep image and transcript entries apart in a shared store
const (
	NamespaceImage      = "image"
	NamespaceTranscript = "transcript"
)

// Cache is a byte store with per-entry TTL. A ttl of 0 uses the store default.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable, filesystem-safe key for id within namespace
func Key(namespace, id string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(id)))
	return "standconn-v1-" + namespace + "-" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg: nothing when disabled, memory only
// when no directory is set, memory over disk otherwise.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Nop{}
	}
	mem := NewMemoryCache(cfg.TTL, 10*time.Minute)
	if cfg.Dir == "" {
		return mem
	}
	return NewLayeredCache(mem, NewDiskCache(cfg.Dir, cfg.TTL))
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
