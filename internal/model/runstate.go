package model

import "sync"

// RunState is the client-local view of whether the server-side screener loop
// is running for this session. It is never persisted — the next status event
// re-derives it after a reload.
type RunState int

const (
	RunStopped RunState = iota
	RunRunning
)

func (s RunState) String() string {
	if s == RunRunning {
		return "running"
	}
	return "stopped"
}

// RunStateVar is the single authoritative RunState cell, written by status
// events and by optimistic command transitions.
type RunStateVar struct {
	mu sync.Mutex
	v  RunState
}

// Set stores the state and reports whether it changed.
func (s *RunStateVar) Set(v RunState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.v != v
	s.v = v
	return changed
}

// Get returns the current state.
func (s *RunStateVar) Get() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

// LastCycleSummary is the persisted "last refresh" line shown in the UI so
// the view is not empty immediately after a reload.
type LastCycleSummary struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}
