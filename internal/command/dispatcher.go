// Package command issues the start/stop/reset control commands and applies
// their optimistic local state transitions. Every call is bounded by the
// HTTP client timeout and re-enables its own control on success and failure
// alike, so a stalled request never wedges the UI.
package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"rsi-screener/internal/cache"
	"rsi-screener/internal/logsink"
	"rsi-screener/internal/model"
	"rsi-screener/internal/notify"
	"rsi-screener/internal/render"
	"rsi-screener/internal/screener"
)

// Dispatcher sends control commands for one session.
type Dispatcher struct {
	base      string
	sessionID string
	client    *http.Client

	cfg      *screener.Manager
	state    *model.RunStateVar
	cache    *cache.AssetCache
	sink     *logsink.Sink
	renderer render.Renderer
	perms    *notify.Gate

	// Confirm guards Reset; a nil hook skips confirmation (tests).
	Confirm func() bool
	// OnBusy reports per-command in-flight state so the view disables only
	// the issuing control.
	OnBusy func(command string, busy bool)
	// OnFailure is a metrics hook for failed commands.
	OnFailure func(command string)
}

// New creates a Dispatcher. client defaults to a 15s-timeout http.Client.
func New(base, sessionID string, client *http.Client, cfg *screener.Manager,
	state *model.RunStateVar, ac *cache.AssetCache, sink *logsink.Sink,
	renderer render.Renderer, perms *notify.Gate) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Dispatcher{
		base:      base,
		sessionID: sessionID,
		client:    client,
		cfg:       cfg,
		state:     state,
		cache:     ac,
		sink:      sink,
		renderer:  renderer,
		perms:     perms,
	}
}

// Start sends the current configuration under this session id. Both
// "started" and "already_running" are success; a transport failure reverts
// the optimistic control-disable, reports the error, and leaves RunState
// untouched.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.busy("start", true)
	defer d.busy("start", false)

	// First user interaction — resolve notification permission lazily.
	if d.perms != nil {
		d.perms.RequestPermission()
	}

	body := struct {
		SessionID string          `json:"session_id"`
		Config    screener.Config `json:"config"`
	}{d.sessionID, d.cfg.Current()}

	var resp struct {
		Status string `json:"status"`
	}
	if err := d.post(ctx, "/api/start", body, &resp); err != nil {
		d.fail("start", err)
		return err
	}

	d.state.Set(model.RunRunning)
	d.renderer.RenderRunState(true)
	d.sink.Append(logsink.LevelInfo, "start acknowledged: "+resp.Status)
	return nil
}

// Stop is best-effort: RunState goes to Stopped on success and failure alike;
// the authoritative state still arrives via the next status event.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.busy("stop", true)
	defer d.busy("stop", false)

	body := struct {
		SessionID string `json:"session_id"`
	}{d.sessionID}

	err := d.post(ctx, "/api/stop", body, nil)
	d.state.Set(model.RunStopped)
	d.renderer.RenderRunState(false)
	if err != nil {
		d.fail("stop", err)
		return err
	}
	d.sink.Append(logsink.LevelWarning, "screener stopped")
	return nil
}

// Reset clears the session's data. It is primarily a local-data-clearing
// operation: whatever the server answers, RunState drops to Stopped and the
// asset cache is cleared, so invoking it twice converges to the same empty
// state. Requires confirmation when a Confirm hook is set.
func (d *Dispatcher) Reset(ctx context.Context) error {
	if d.Confirm != nil && !d.Confirm() {
		return nil
	}

	d.busy("reset", true)
	defer d.busy("reset", false)

	body := struct {
		SessionID string `json:"session_id"`
	}{d.sessionID}

	err := d.post(ctx, "/api/reset", body, nil)
	if err != nil {
		// Server-side reset failed; the local clear below still applies.
		d.fail("reset", err)
	}

	d.state.Set(model.RunStopped)
	d.cache.Clear()
	d.renderer.RenderCleared()
	d.renderer.RenderRunState(false)
	d.sink.Append(logsink.LevelWarning, "data reset complete")
	return err
}

func (d *Dispatcher) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("command %s: marshal: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.base+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("command %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("command %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("command %s: server returned %s", path, resp.Status)
	}
	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// 2xx with an unreadable body still counts as accepted.
		log.Printf("[command] %s: unparseable response body: %v", path, err)
	}
	return nil
}

func (d *Dispatcher) busy(command string, busy bool) {
	if d.OnBusy != nil {
		d.OnBusy(command, busy)
	}
}

func (d *Dispatcher) fail(command string, err error) {
	d.sink.Append(logsink.LevelError, command+" failed: "+err.Error())
	if d.OnFailure != nil {
		d.OnFailure(command)
	}
}
