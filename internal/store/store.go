// Package store defines the durable key-value store contract shared by the
// sqlite and redis backends. Values are JSON-serialized; a missing or
// malformed stored value reports "absent" rather than an error so callers
// can always fall through to defaults.
package store

import (
	"encoding/json"
	"log"
	"sync"
)

// Namespaced keys. These are a stable contract — changing them orphans the
// data persisted by earlier builds.
const (
	KeySessionID = "screener:session_id"
	KeyConfig    = "screener:config"
	KeyAssets    = "screener:assets"
	KeyLastCycle = "screener:last_cycle"
)

// Store is the durable store contract. Put failures are non-fatal by
// convention: callers log and continue with in-memory state only.
type Store interface {
	// Put serializes v as JSON and stores it under key.
	Put(key string, v any) error
	// Get deserializes the value under key into out. Returns (false, nil)
	// when the key is absent; a malformed stored value is treated as absent.
	Get(key string, out any) (bool, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	Close() error
}

// Memory is a map-backed Store used when persistence is disabled and in
// tests. Values are kept in serialized form so Get exercises the same
// round-trip as the durable backends.
type Memory struct {
	mu sync.Mutex
	m  map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (s *Memory) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.m[key] = data
	s.mu.Unlock()
	return nil
}

func (s *Memory) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	data, ok := s.m[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("[store] malformed value for %s, treating as absent: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (s *Memory) Delete(key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

func (s *Memory) Close() error { return nil }

// PutRaw stores pre-serialized bytes. Used by tests to plant malformed data.
func (s *Memory) PutRaw(key string, data []byte) {
	s.mu.Lock()
	s.m[key] = data
	s.mu.Unlock()
}
