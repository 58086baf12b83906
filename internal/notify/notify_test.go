package notify

import (
	"context"
	"sync"
	"testing"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (c *captureNotifier) Send(_ context.Context, n Notification) error {
	c.mu.Lock()
	c.sent = append(c.sent, n)
	c.mu.Unlock()
	return nil
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestGate_UndecidedDropsSilently(t *testing.T) {
	backend := &captureNotifier{}
	g := NewGate(backend)

	g.Dispatch(context.Background(), Notification{Symbol: "BTC_USDT"})
	if backend.count() != 0 {
		t.Error("undecided permission must drop, not queue")
	}

	// Granting later must NOT deliver the earlier notification.
	g.RequestPermission()
	if backend.count() != 0 {
		t.Error("grant must not flush previously dropped notifications")
	}
}

func TestGate_GrantedDelivers(t *testing.T) {
	backend := &captureNotifier{}
	g := NewGate(backend)

	if p := g.RequestPermission(); p != PermissionGranted {
		t.Fatalf("default Ask should grant, got %v", p)
	}
	g.Dispatch(context.Background(), Notification{Symbol: "BTC_USDT", AlertType: "RSI Overbought", Level: "danger"})
	if backend.count() != 1 {
		t.Errorf("sent = %d, want 1", backend.count())
	}
}

func TestGate_DeniedDrops(t *testing.T) {
	backend := &captureNotifier{}
	g := NewGate(backend)
	g.Ask = func() Permission { return PermissionDenied }

	g.RequestPermission()
	g.Dispatch(context.Background(), Notification{Symbol: "BTC_USDT"})
	if backend.count() != 0 {
		t.Error("denied permission must drop notifications")
	}
}

func TestGate_RequestAskedOnce(t *testing.T) {
	backend := &captureNotifier{}
	g := NewGate(backend)

	asked := 0
	g.Ask = func() Permission {
		asked++
		return PermissionGranted
	}

	g.RequestPermission()
	g.RequestPermission()
	g.RequestPermission()
	if asked != 1 {
		t.Errorf("Ask invoked %d times, want 1", asked)
	}
	if g.Permission() != PermissionGranted {
		t.Errorf("permission = %v", g.Permission())
	}
}
