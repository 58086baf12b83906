// Package session manages the stable client identifier that binds this
// client to its server-side screener session.
package session

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"rsi-screener/internal/store"
)

// Identity resolves and caches the session id. The id is generated once per
// store (one per browser-origin equivalent) and never rotated automatically;
// clearing the store is the only way to get a new one.
type Identity struct {
	st store.Store
	id string

	// OnPersistFailure fires when the generated id cannot be stored (metrics).
	OnPersistFailure func()
}

// New creates an Identity backed by st.
func New(st store.Store) *Identity {
	return &Identity{st: st}
}

// GetOrCreate returns the persisted session id, generating and persisting a
// new one if the store has none. Repeated calls within a process lifetime
// return the cached value. A persistence failure is logged and the in-memory
// id is still returned — the session just won't survive a restart.
func (i *Identity) GetOrCreate() string {
	if i.id != "" {
		return i.id
	}

	var stored string
	if ok, err := i.st.Get(store.KeySessionID, &stored); err != nil {
		log.Printf("[session] read failed: %v", err)
	} else if ok && stored != "" {
		i.id = stored
		return i.id
	}

	i.id = generate()
	if err := i.st.Put(store.KeySessionID, i.id); err != nil {
		log.Printf("[session] persist failed (id is memory-only): %v", err)
		if i.OnPersistFailure != nil {
			i.OnPersistFailure()
		}
	}
	log.Printf("[session] created session %s", i.id)
	return i.id
}

// generate prefers a random UUID and falls back to a timestamp+random token
// when UUID generation fails (exhausted entropy source).
func generate() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return fmt.Sprintf("sess-%d-%06d", time.Now().UnixNano(), rand.Intn(1_000_000))
}
