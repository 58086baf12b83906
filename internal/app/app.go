// Package app assembles the dashboard client: one explicit state struct
// owning the session identity, configuration, caches, stream client, event
// router and command dispatcher, with defined initialization and teardown.
// Nothing in the client lives in package-level state.
package app

import (
	"context"
	"net/http"
	"time"

	"rsi-screener/internal/cache"
	"rsi-screener/internal/command"
	"rsi-screener/internal/logsink"
	"rsi-screener/internal/metrics"
	"rsi-screener/internal/model"
	"rsi-screener/internal/notify"
	"rsi-screener/internal/render"
	"rsi-screener/internal/router"
	"rsi-screener/internal/screener"
	"rsi-screener/internal/session"
	"rsi-screener/internal/store"
	"rsi-screener/internal/stream"
)

// Options configures App construction. Store and Renderer are required;
// everything else has working defaults.
type Options struct {
	ServerURL string
	Store     store.Store
	Renderer  render.Renderer

	// Notifier backend behind the permission gate. Defaults to LogNotifier.
	Notifier notify.Notifier
	// Backoff policy for the stream client.
	Backoff stream.Backoff
	// CommandTimeout bounds control and defaults requests.
	CommandTimeout time.Duration
	// Confirm guards reset. Nil skips confirmation.
	Confirm func() bool

	// Optional observability.
	Metrics *metrics.Metrics
	Health  *metrics.HealthStatus
}

// App is the top-level controller.
type App struct {
	SessionID string
	Config    *screener.Manager
	Cache     *cache.AssetCache
	Sink      *logsink.Sink
	State     *model.RunStateVar
	Commands  *command.Dispatcher

	renderer render.Renderer
	perms    *notify.Gate
	stream   *stream.Client
	router   *router.Router
	opts     Options
}

// New builds the client. The session id is resolved (and created on first
// run) here, before anything connects.
func New(opts Options) (*App, error) {
	if opts.CommandTimeout == 0 {
		opts.CommandTimeout = 15 * time.Second
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.LogNotifier{}
	}

	var persistFailed func()
	if opts.Metrics != nil {
		m := opts.Metrics
		persistFailed = func() { m.PersistFailures.Inc() }
	}

	ident := session.New(opts.Store)
	ident.OnPersistFailure = persistFailed
	sessionID := ident.GetOrCreate()
	if opts.Health != nil {
		opts.Health.SetSessionID(sessionID)
	}

	cmdClient := &http.Client{Timeout: opts.CommandTimeout}

	a := &App{
		SessionID: sessionID,
		Config:    screener.NewManager(opts.Store, cmdClient, opts.ServerURL+"/api/defaults"),
		Cache:     cache.New(opts.Store),
		Sink:      logsink.New(logsink.DefaultLimit),
		State:     &model.RunStateVar{},
		renderer:  opts.Renderer,
		perms:     notify.NewGate(opts.Notifier),
		opts:      opts,
	}
	a.Config.OnPersistFailure = persistFailed
	a.Cache.OnPersistFailure = persistFailed

	// Log entries are display state; forward every append to the view.
	a.Sink.OnAppend = a.renderer.RenderLog

	a.Commands = command.New(opts.ServerURL, sessionID, cmdClient,
		a.Config, a.State, a.Cache, a.Sink, a.renderer, a.perms)
	a.Commands.Confirm = opts.Confirm
	if opts.Metrics != nil {
		m := opts.Metrics
		a.Commands.OnFailure = func(cmd string) {
			m.CommandFailures.WithLabelValues(cmd).Inc()
		}
	}

	sc, err := stream.New(stream.Config{
		BaseURL:   opts.ServerURL,
		SessionID: sessionID,
		Backoff:   opts.Backoff,
	})
	if err != nil {
		return nil, err
	}
	a.stream = sc
	a.wireStreamHooks()

	a.router = router.New(a.Cache, a.renderer, a.Sink, a.State, a.perms)
	a.router.OnEvent = func(kind model.EventKind) {
		if opts.Metrics != nil {
			opts.Metrics.EventsTotal.WithLabelValues(string(kind)).Inc()
			opts.Metrics.CachedSymbols.Set(float64(a.Cache.Len()))
		}
		if opts.Health != nil {
			opts.Health.MarkEvent()
		}
	}

	return a, nil
}

func (a *App) wireStreamHooks() {
	m, h := a.opts.Metrics, a.opts.Health
	a.stream.OnReconnect = func() {
		if m != nil {
			m.StreamReconnects.Inc()
		}
	}
	a.stream.OnDropped = func(error) {
		if m != nil {
			m.MalformedDropped.Inc()
		}
	}
	a.stream.OnState = func(s stream.State) {
		if m != nil {
			m.StreamState.Set(float64(s))
		}
		if h != nil {
			h.SetStreamOpen(s == stream.StateOpen)
		}
	}
}

// Run initializes view state from the durable cache, resolves the effective
// configuration, then connects the stream and dispatches events until ctx is
// cancelled. Event handlers run on this goroutine, strictly in arrival
// order.
func (a *App) Run(ctx context.Context) {
	a.Cache.Rehydrate()
	if t, ok := a.renderer.(*render.Table); ok {
		t.Prime(a.Cache.All(), a.Cache.LastCycle())
	} else {
		for _, snap := range a.Cache.All() {
			a.renderer.RenderAsset(snap)
		}
		a.renderer.RenderCycle(a.Cache.LastCycle())
	}

	cfg := a.Config.Load(ctx)
	if t, ok := a.renderer.(*render.Table); ok {
		t.SetThresholds(cfg.RSIOverbought, cfg.RSIOversold, cfg.StochOverbought, cfg.StochOversold)
	}

	go a.stream.Run(ctx)
	a.router.Run(ctx, a.stream.Events())
}

// StreamState exposes the connection state for status display.
func (a *App) StreamState() stream.State { return a.stream.State() }

// ImportConfig applies an uploaded settings document. Rejection reports the
// specific reason through the log sink and leaves configuration unchanged.
func (a *App) ImportConfig(data []byte) error {
	if err := a.Config.Import(data); err != nil {
		a.Sink.Append(logsink.LevelError, err.Error())
		return err
	}
	a.Sink.Append(logsink.LevelSuccess, "settings imported")
	return nil
}

// ExportConfig serializes current settings with their download filename.
func (a *App) ExportConfig() ([]byte, string, error) {
	return a.Config.Export(time.Now())
}
