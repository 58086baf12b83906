package command

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rsi-screener/internal/cache"
	"rsi-screener/internal/logsink"
	"rsi-screener/internal/model"
	"rsi-screener/internal/notify"
	"rsi-screener/internal/screener"
	"rsi-screener/internal/store"
)

type nullRenderer struct {
	runStates []bool
	cleared   int
}

func (r *nullRenderer) RenderAsset(model.AssetSnapshot)    {}
func (r *nullRenderer) RenderCycle(model.LastCycleSummary) {}
func (r *nullRenderer) RenderCountdown(int)                {}
func (r *nullRenderer) RenderRunState(running bool)        { r.runStates = append(r.runStates, running) }
func (r *nullRenderer) RenderCleared()                     { r.cleared++ }
func (r *nullRenderer) RenderLog(logsink.Entry)            {}

type fixture struct {
	d        *Dispatcher
	state    *model.RunStateVar
	cache    *cache.AssetCache
	sink     *logsink.Sink
	renderer *nullRenderer
}

func newFixture(t *testing.T, baseURL string) *fixture {
	t.Helper()
	st := store.NewMemory()
	mgr := screener.NewManager(st, nil, "")
	mgr.Save(screener.Default())

	f := &fixture{
		state:    &model.RunStateVar{},
		cache:    cache.New(st),
		sink:     logsink.New(20),
		renderer: &nullRenderer{},
	}
	f.d = New(baseURL, "test-session", nil, mgr, f.state, f.cache, f.sink, f.renderer,
		notify.NewGate(notify.LogNotifier{}))
	return f
}

func statusServer(t *testing.T, wantPath, status string, sawBody func(map[string]json.RawMessage)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
		}
		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("body decode: %v", err)
		}
		if sawBody != nil {
			sawBody(body)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}))
}

func TestStart_Success(t *testing.T) {
	var gotSession string
	var gotConfig screener.Config
	srv := statusServer(t, "/api/start", "started", func(body map[string]json.RawMessage) {
		json.Unmarshal(body["session_id"], &gotSession)
		json.Unmarshal(body["config"], &gotConfig)
	})
	defer srv.Close()

	f := newFixture(t, srv.URL)
	if err := f.d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if gotSession != "test-session" {
		t.Errorf("session_id = %q", gotSession)
	}
	if !gotConfig.Valid() {
		t.Error("start must carry the full current config")
	}
	if f.state.Get() != model.RunRunning {
		t.Error("expected running after acknowledged start")
	}
	if len(f.renderer.runStates) != 1 || !f.renderer.runStates[0] {
		t.Errorf("run state renders = %v", f.renderer.runStates)
	}
}

func TestStart_AlreadyRunningIsSuccess(t *testing.T) {
	srv := statusServer(t, "/api/start", "already_running", nil)
	defer srv.Close()

	f := newFixture(t, srv.URL)
	if err := f.d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if f.state.Get() != model.RunRunning {
		t.Error("already_running must still transition to running")
	}
}

func TestStart_TransportFailureLeavesState(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // connection refused from here on

	f := newFixture(t, srv.URL)
	failures := 0
	f.d.OnFailure = func(cmd string) {
		if cmd != "start" {
			t.Errorf("failure command = %q", cmd)
		}
		failures++
	}

	if err := f.d.Start(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
	if f.state.Get() != model.RunStopped {
		t.Error("failed start must leave RunState untouched")
	}
	if failures != 1 {
		t.Errorf("failure hook fired %d times", failures)
	}
	// The failure must be visible in the activity log.
	entries := f.sink.Entries()
	if len(entries) == 0 || entries[len(entries)-1].Level != logsink.LevelError {
		t.Errorf("expected error entry in sink, got %v", entries)
	}
}

func TestStart_ServerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	if err := f.d.Start(context.Background()); err == nil {
		t.Fatal("expected error on 500")
	}
	if f.state.Get() != model.RunStopped {
		t.Error("failed start must leave RunState untouched")
	}
}

func TestStop_Optimistic(t *testing.T) {
	srv := statusServer(t, "/api/stop", "stopped", nil)
	defer srv.Close()

	f := newFixture(t, srv.URL)
	f.state.Set(model.RunRunning)

	if err := f.d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if f.state.Get() != model.RunStopped {
		t.Error("expected stopped")
	}
}

func TestStop_FailureStillStops(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()

	f := newFixture(t, srv.URL)
	f.state.Set(model.RunRunning)

	if err := f.d.Stop(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
	// Optimistic: local state stops either way; the next status event is
	// authoritative.
	if f.state.Get() != model.RunStopped {
		t.Error("stop must transition to stopped even on failure")
	}
}

func TestReset_ClearsLocalStateEvenOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()

	f := newFixture(t, srv.URL)
	f.state.Set(model.RunRunning)
	f.cache.Put(model.AssetSnapshot{Symbol: "BTC_USDT"})
	f.cache.SetLastCycle(model.LastCycleSummary{Text: "1/1 assets refreshed at 09:00:00"})

	err := f.d.Reset(context.Background())
	if err == nil {
		t.Fatal("expected server error to surface")
	}
	if f.state.Get() != model.RunStopped {
		t.Error("reset must stop locally regardless of server response")
	}
	if f.cache.Len() != 0 || f.cache.LastCycle().Text != "" {
		t.Error("reset must clear local data regardless of server response")
	}
	if f.renderer.cleared != 1 {
		t.Errorf("cleared renders = %d", f.renderer.cleared)
	}
}

func TestReset_Idempotent(t *testing.T) {
	srv := statusServer(t, "/api/reset", "reset", nil)
	defer srv.Close()

	f := newFixture(t, srv.URL)
	f.cache.Put(model.AssetSnapshot{Symbol: "BTC_USDT"})

	if err := f.d.Reset(context.Background()); err != nil {
		t.Fatalf("first reset: %v", err)
	}
	if err := f.d.Reset(context.Background()); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if f.cache.Len() != 0 {
		t.Error("cache not empty")
	}
}

func TestReset_ConfirmDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("declined reset must not reach the server")
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	f.d.Confirm = func() bool { return false }
	f.cache.Put(model.AssetSnapshot{Symbol: "BTC_USDT"})

	if err := f.d.Reset(context.Background()); err != nil {
		t.Fatalf("declined reset: %v", err)
	}
	if f.cache.Len() != 1 {
		t.Error("declined reset must not clear anything")
	}
}

func TestBusy_PerCommand(t *testing.T) {
	srv := statusServer(t, "/api/stop", "stopped", nil)
	defer srv.Close()

	f := newFixture(t, srv.URL)
	var calls []string
	f.d.OnBusy = func(cmd string, busy bool) {
		state := "idle"
		if busy {
			state = "busy"
		}
		calls = append(calls, cmd+":"+state)
	}

	f.d.Stop(context.Background())
	if len(calls) != 2 || calls[0] != "stop:busy" || calls[1] != "stop:idle" {
		t.Errorf("busy transitions = %v", calls)
	}
}
