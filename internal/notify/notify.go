// Package notify delivers per-symbol alert notifications, gated by a
// browser-style permission model: permission is requested lazily on the
// first user interaction, and a notification is dispatched only when
// permission is already granted at the moment the alert arrives — pending
// permission never queues notifications.
package notify

import (
	"context"
	"log"
	"sync"
)

// Permission mirrors the three-valued platform notification permission.
type Permission int

const (
	PermissionDefault Permission = iota // not yet decided
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "default"
	}
}

// Notification is one user-facing alert for a symbol.
type Notification struct {
	Symbol    string `json:"symbol"`
	AlertType string `json:"alert_type"`
	Level     string `json:"level"`
}

// Notifier is the delivery backend contract.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Gate wraps a Notifier with the permission model.
type Gate struct {
	mu        sync.Mutex
	perm      Permission
	requested bool

	// Ask resolves a pending permission request. Defaults to granting —
	// the terminal client has no real permission prompt to show.
	Ask func() Permission

	backend Notifier
}

// NewGate creates a Gate over the given backend with undecided permission.
func NewGate(backend Notifier) *Gate {
	return &Gate{backend: backend}
}

// RequestPermission asks for permission if it has not been decided yet.
// Called from the command path on the first user interaction.
func (g *Gate) RequestPermission() Permission {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.perm != PermissionDefault || g.requested {
		return g.perm
	}
	g.requested = true
	if g.Ask != nil {
		g.perm = g.Ask()
	} else {
		g.perm = PermissionGranted
	}
	log.Printf("[notify] permission %s", g.perm)
	return g.perm
}

// Permission returns the current decision.
func (g *Gate) Permission() Permission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.perm
}

// Dispatch sends n iff permission is granted right now. Undecided or denied
// permission drops the notification silently — no queuing.
func (g *Gate) Dispatch(ctx context.Context, n Notification) {
	g.mu.Lock()
	granted := g.perm == PermissionGranted
	g.mu.Unlock()
	if !granted || g.backend == nil {
		return
	}
	if err := g.backend.Send(ctx, n); err != nil {
		log.Printf("[notify] delivery failed: %v", err)
	}
}

// LogNotifier writes notifications to the process log. Default backend for
// terminal use.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, n Notification) error {
	log.Printf("[notify] %s: %s (%s)", n.Symbol, n.AlertType, n.Level)
	return nil
}
