package logsink

import (
	"fmt"
	"testing"
)

func TestAppend_Order(t *testing.T) {
	s := New(10)
	s.Append(LevelInfo, "first")
	s.Append(LevelWarning, "second")

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Message != "first" || entries[1].Message != "second" {
		t.Errorf("order wrong: %v", entries)
	}
	if entries[1].Level != LevelWarning {
		t.Errorf("level = %q", entries[1].Level)
	}
	if entries[0].Time == "" {
		t.Error("expected rendered timestamp")
	}
}

func TestAppend_EvictsOldest(t *testing.T) {
	s := New(DefaultLimit)
	for i := 0; i < 150; i++ {
		s.Append(LevelInfo, fmt.Sprintf("msg-%d", i))
	}

	if s.Len() != DefaultLimit {
		t.Fatalf("len = %d, want %d", s.Len(), DefaultLimit)
	}
	entries := s.Entries()
	if entries[0].Message != "msg-50" {
		t.Errorf("oldest retained = %q, want msg-50", entries[0].Message)
	}
	if entries[len(entries)-1].Message != "msg-149" {
		t.Errorf("newest retained = %q, want msg-149", entries[len(entries)-1].Message)
	}
}

func TestNew_DefaultLimit(t *testing.T) {
	s := New(0)
	for i := 0; i < DefaultLimit+1; i++ {
		s.Append(LevelInfo, "x")
	}
	if s.Len() != DefaultLimit {
		t.Errorf("len = %d, want %d", s.Len(), DefaultLimit)
	}
}

func TestOnAppend_Hook(t *testing.T) {
	s := New(5)
	var got []Entry
	s.OnAppend = func(e Entry) { got = append(got, e) }

	s.Append(LevelError, "boom")
	if len(got) != 1 || got[0].Message != "boom" || got[0].Level != LevelError {
		t.Errorf("hook saw %v", got)
	}
}

func TestEntries_ReturnsCopy(t *testing.T) {
	s := New(5)
	s.Append(LevelInfo, "keep")

	out := s.Entries()
	out[0].Message = "mutated"

	if s.Entries()[0].Message != "keep" {
		t.Error("mutating Entries() result must not affect the sink")
	}
}
