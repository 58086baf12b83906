package store

import "testing"

func TestMemory_RoundTrip(t *testing.T) {
	st := NewMemory()

	type rec struct {
		Name  string   `json:"name"`
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}
	in := rec{Name: "btc", Count: 3, Tags: []string{"a", "b"}}

	if err := st.Put(KeyConfig, in); err != nil {
		t.Fatalf("put: %v", err)
	}

	var out rec
	ok, err := st.Get(KeyConfig, &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected value present")
	}
	if out.Name != in.Name || out.Count != in.Count || len(out.Tags) != 2 {
		t.Errorf("round-trip mismatch: got %+v", out)
	}
}

func TestMemory_AbsentKey(t *testing.T) {
	st := NewMemory()

	var out string
	ok, err := st.Get("screener:nope", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Error("expected absent key to report not found")
	}
}

func TestMemory_MalformedValueTreatedAsAbsent(t *testing.T) {
	st := NewMemory()
	st.PutRaw(KeyConfig, []byte(`{"broken`))

	var out map[string]any
	ok, err := st.Get(KeyConfig, &out)
	if err != nil {
		t.Fatalf("expected no error for malformed value, got %v", err)
	}
	if ok {
		t.Error("expected malformed value to report not found")
	}
}

func TestMemory_Delete(t *testing.T) {
	st := NewMemory()

	if err := st.Put(KeySessionID, "abc"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.Delete(KeySessionID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var out string
	if ok, _ := st.Get(KeySessionID, &out); ok {
		t.Error("expected deleted key to be absent")
	}

	// Deleting an absent key is not an error.
	if err := st.Delete(KeySessionID); err != nil {
		t.Errorf("delete absent: %v", err)
	}
}

func TestMemory_Overwrite(t *testing.T) {
	st := NewMemory()

	st.Put(KeyLastCycle, "first")
	st.Put(KeyLastCycle, "second")

	var out string
	ok, _ := st.Get(KeyLastCycle, &out)
	if !ok || out != "second" {
		t.Errorf("expected last write to win, got %q (present=%v)", out, ok)
	}
}
