// Package cache keeps the latest asset snapshot per symbol and mirrors the
// whole table to the durable store on every update, so a restarted client
// can show the last known view before the first stream event arrives.
package cache

import (
	"log"
	"sort"
	"sync"

	"rsi-screener/internal/model"
	"rsi-screener/internal/store"
)

// AssetCache is the symbol → latest-snapshot table. Last write wins: an
// arriving snapshot fully replaces the previous one for its symbol, no field
// merging.
type AssetCache struct {
	mu      sync.Mutex
	st      store.Store
	assets  map[string]model.AssetSnapshot
	lastCyc model.LastCycleSummary

	// OnPersistFailure fires on every tolerated store write failure (metrics).
	OnPersistFailure func()
}

// New creates an empty cache backed by st.
func New(st store.Store) *AssetCache {
	return &AssetCache{st: st, assets: make(map[string]model.AssetSnapshot)}
}

// Rehydrate loads the persisted table and last-cycle summary. Called once at
// startup; absent or malformed persisted state leaves the cache empty.
func (c *AssetCache) Rehydrate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var table map[string]model.AssetSnapshot
	if ok, err := c.st.Get(store.KeyAssets, &table); err != nil {
		log.Printf("[cache] rehydrate failed: %v", err)
	} else if ok && table != nil {
		c.assets = table
	}

	var cyc model.LastCycleSummary
	if ok, err := c.st.Get(store.KeyLastCycle, &cyc); err != nil {
		log.Printf("[cache] last-cycle rehydrate failed: %v", err)
	} else if ok {
		c.lastCyc = cyc
	}
}

// Put upserts a snapshot by symbol and persists the whole table.
func (c *AssetCache) Put(snap model.AssetSnapshot) {
	c.mu.Lock()
	c.assets[snap.Symbol] = snap
	c.persistLocked()
	c.mu.Unlock()
}

// Get returns the cached snapshot for a symbol.
func (c *AssetCache) Get(symbol string) (model.AssetSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.assets[symbol]
	return snap, ok
}

// All returns a copy of the table for restore-on-load rendering.
func (c *AssetCache) All() map[string]model.AssetSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]model.AssetSnapshot, len(c.assets))
	for k, v := range c.assets {
		out[k] = v
	}
	return out
}

// Symbols returns the cached symbols in stable (sorted) order.
func (c *AssetCache) Symbols() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.assets))
	for k := range c.assets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached symbols.
func (c *AssetCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.assets)
}

// SetLastCycle records and persists the last-cycle summary.
func (c *AssetCache) SetLastCycle(s model.LastCycleSummary) {
	c.mu.Lock()
	c.lastCyc = s
	if err := c.st.Put(store.KeyLastCycle, &c.lastCyc); err != nil {
		c.persistFailed("last-cycle", err)
	}
	c.mu.Unlock()
}

// LastCycle returns the persisted last-cycle summary (zero value when none).
func (c *AssetCache) LastCycle() model.LastCycleSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCyc
}

// Clear empties the table and the last-cycle summary and persists the empty
// state. Both the local reset command and the server-pushed reset event land
// here, so the two paths converge to identical state. Idempotent.
func (c *AssetCache) Clear() {
	c.mu.Lock()
	c.assets = make(map[string]model.AssetSnapshot)
	c.lastCyc = model.LastCycleSummary{}
	c.persistLocked()
	if err := c.st.Put(store.KeyLastCycle, &c.lastCyc); err != nil {
		c.persistFailed("last-cycle", err)
	}
	c.mu.Unlock()
}

// persistLocked writes the whole table. Persistence failure is logged and
// tolerated; the in-memory table stays authoritative for this process.
func (c *AssetCache) persistLocked() {
	if err := c.st.Put(store.KeyAssets, c.assets); err != nil {
		c.persistFailed("table", err)
	}
}

func (c *AssetCache) persistFailed(what string, err error) {
	log.Printf("[cache] %s persist failed: %v", what, err)
	if c.OnPersistFailure != nil {
		c.OnPersistFailure()
	}
}
