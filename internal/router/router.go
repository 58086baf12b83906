// Package router dispatches decoded stream events to the asset cache, the
// render layer, the log sink and the notification gate. It is the single
// consumer of the stream's event channel, so handlers run strictly in
// arrival order with no interleaving — the read-modify-write on the asset
// cache needs nothing more.
package router

import (
	"context"
	"fmt"
	"log"

	"rsi-screener/internal/cache"
	"rsi-screener/internal/logsink"
	"rsi-screener/internal/model"
	"rsi-screener/internal/notify"
	"rsi-screener/internal/render"
)

// Router routes events by kind. No ordering is assumed between asset_update
// and cycle_complete beyond per-connection emission order, and none across
// symbols.
type Router struct {
	cache    *cache.AssetCache
	renderer render.Renderer
	sink     *logsink.Sink
	state    *model.RunStateVar
	perms    *notify.Gate

	// OnEvent is a metrics hook invoked per handled event kind.
	OnEvent func(kind model.EventKind)
}

// New creates a Router over the client's state stores.
func New(ac *cache.AssetCache, renderer render.Renderer, sink *logsink.Sink,
	state *model.RunStateVar, perms *notify.Gate) *Router {
	return &Router{cache: ac, renderer: renderer, sink: sink, state: state, perms: perms}
}

// Run consumes events until the channel closes or ctx is cancelled.
func (r *Router) Run(ctx context.Context, events <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.Handle(ctx, ev)
		}
	}
}

// Handle dispatches one event.
func (r *Router) Handle(ctx context.Context, ev model.Event) {
	if r.OnEvent != nil {
		r.OnEvent(ev.Kind)
	}

	switch ev.Kind {
	case model.EventAssetUpdate:
		r.cache.Put(*ev.Asset)
		r.renderer.RenderAsset(*ev.Asset)
		for _, a := range ev.Asset.Alerts {
			if a.Notify() {
				r.perms.Dispatch(ctx, notify.Notification{
					Symbol:    ev.Asset.Symbol,
					AlertType: a.Type,
					Level:     a.Level,
				})
			}
		}

	case model.EventCycleComplete:
		summary := model.LastCycleSummary{
			Text:      fmt.Sprintf("%d/%d assets refreshed at %s", ev.Cycle.Count, ev.Cycle.Total, ev.Cycle.Timestamp),
			Timestamp: ev.Cycle.Timestamp,
		}
		r.cache.SetLastCycle(summary)
		r.renderer.RenderCycle(summary)

	case model.EventCountdown:
		r.renderer.RenderCountdown(ev.Countdown.SecondsLeft)

	case model.EventStatus:
		state := model.RunStopped
		if ev.Status.Running {
			state = model.RunRunning
		}
		r.state.Set(state)
		r.renderer.RenderRunState(ev.Status.Running)

	case model.EventLog:
		r.sink.Append(ev.Log.Level, ev.Log.Message)

	case model.EventReset:
		// Converges with the local reset path: both end in cache.Clear.
		r.cache.Clear()
		r.renderer.RenderCleared()

	case model.EventHeartbeat:
		// liveness only

	default:
		// DecodeEvent rejects unknown kinds, so this is unreachable from
		// the stream; guard for direct callers anyway.
		log.Printf("[router] ignoring unhandled event kind %q", ev.Kind)
	}
}
