package session

import (
	"errors"
	"testing"

	"rsi-screener/internal/store"
)

func TestGetOrCreate_GeneratesAndPersists(t *testing.T) {
	st := store.NewMemory()

	id := New(st).GetOrCreate()
	if id == "" {
		t.Fatal("expected non-empty session id")
	}

	var stored string
	ok, _ := st.Get(store.KeySessionID, &stored)
	if !ok || stored != id {
		t.Errorf("expected id persisted, got %q (present=%v)", stored, ok)
	}
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	st := store.NewMemory()
	ident := New(st)

	first := ident.GetOrCreate()
	second := ident.GetOrCreate()
	if first != second {
		t.Errorf("expected stable id within process, got %q then %q", first, second)
	}
}

func TestGetOrCreate_ReusesStoredID(t *testing.T) {
	st := store.NewMemory()
	st.Put(store.KeySessionID, "existing-id")

	// A fresh Identity over the same store simulates a client restart.
	id := New(st).GetOrCreate()
	if id != "existing-id" {
		t.Errorf("expected stored id reused, got %q", id)
	}
}

func TestGetOrCreate_NewStoreNewID(t *testing.T) {
	a := New(store.NewMemory()).GetOrCreate()
	b := New(store.NewMemory()).GetOrCreate()
	if a == b {
		t.Error("expected distinct ids for distinct stores")
	}
}

type failingStore struct{ *store.Memory }

func (failingStore) Put(string, any) error { return errors.New("disk full") }

func TestGetOrCreate_PersistFailureHookFires(t *testing.T) {
	ident := New(failingStore{store.NewMemory()})
	var failures int
	ident.OnPersistFailure = func() { failures++ }

	// The id is still usable in-memory even though it could not be stored.
	if id := ident.GetOrCreate(); id == "" {
		t.Fatal("expected non-empty session id despite store failure")
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
}
