// Package logsink is the bounded on-screen activity log: the most recent 100
// entries, oldest evicted first. Entries are display state, not diagnostics,
// and are never persisted across restarts.
package logsink

import (
	"sync"
	"time"
)

// DefaultLimit is the retained entry count.
const DefaultLimit = 100

// Severity levels, matching the server's log event levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Entry is one log line with its severity and rendered timestamp.
type Entry struct {
	Level   string
	Message string
	Time    string // "15:04:05"
}

// Sink is the bounded append-only log buffer.
type Sink struct {
	mu      sync.Mutex
	entries []Entry
	limit   int

	// OnAppend, when set, is invoked for every appended entry (render hook).
	OnAppend func(Entry)
}

// New creates a sink retaining at most limit entries; limit <= 0 uses
// DefaultLimit.
func New(limit int) *Sink {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Sink{entries: make([]Entry, 0, limit), limit: limit}
}

// Append adds an entry, evicting the oldest once the limit is reached.
func (s *Sink) Append(level, message string) {
	e := Entry{Level: level, Message: message, Time: time.Now().Format("15:04:05")}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	if len(s.entries) > s.limit {
		s.entries = s.entries[len(s.entries)-s.limit:]
	}
	hook := s.OnAppend
	s.mu.Unlock()

	if hook != nil {
		hook(e)
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (s *Sink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the retained entry count.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
