// Package stream maintains the one logical server-push connection for a
// session: an SSE channel delivering `{type, data}` envelopes. Transport
// errors are never terminal — the client reconnects with capped exponential
// backoff, and events lost while disconnected are recovered implicitly by
// the next full snapshot per symbol.
package stream

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"rsi-screener/internal/model"
)

// State is the connection lifecycle state.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Backoff is the reconnect delay policy: initial delay doubling up to a cap,
// reset after every successful connection.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (b *Backoff) defaults() {
	if b.Initial == 0 {
		b.Initial = 1 * time.Second
	}
	if b.Max == 0 {
		b.Max = 30 * time.Second
	}
}

// delay returns the backoff for the given consecutive failure count (1-based).
func (b Backoff) delay(failures int) time.Duration {
	d := b.Initial
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= b.Max {
			return b.Max
		}
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

// Config configures the stream client.
type Config struct {
	// BaseURL of the dashboard server, e.g. "http://localhost:5000".
	BaseURL string
	// SessionID keys the server-side session; reconnects reuse it.
	SessionID string
	// Backoff policy for reconnection.
	Backoff Backoff
	// ReadIdleTimeout bounds the gap between frames. The server heartbeats
	// every 25s, so a stream silent past this bound is a dead connection
	// and gets torn down for reconnect. Defaults to 60s.
	ReadIdleTimeout time.Duration
	// Client for the streaming request. Must not carry a global timeout —
	// the stream is long-lived. Defaults to a plain http.Client.
	Client *http.Client
}

// Client owns the stream connection and decodes envelopes into model.Event
// values on its Events channel. Events are delivered in arrival order to a
// single consumer.
type Client struct {
	cfg    Config
	events chan model.Event
	state  atomic.Int32

	// Optional hooks (metrics).
	OnReconnect func()
	OnDropped   func(err error)
	OnState     func(State)
}

// New creates a stream client. Returns an error if BaseURL is unparseable.
func New(cfg Config) (*Client, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("stream: bad base url: %w", err)
	}
	if cfg.SessionID == "" {
		return nil, fmt.Errorf("stream: session id required")
	}
	cfg.Backoff.defaults()
	if cfg.ReadIdleTimeout == 0 {
		cfg.ReadIdleTimeout = 60 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	return &Client{cfg: cfg, events: make(chan model.Event, 256)}, nil
}

// Events is the decoded event channel. Closed when Run returns.
func (c *Client) Events() <-chan model.Event { return c.events }

// State returns the current connection state.
func (c *Client) State() State { return State(c.state.Load()) }

func (c *Client) setState(s State) {
	if State(c.state.Swap(int32(s))) != s && c.OnState != nil {
		c.OnState(s)
	}
}

// Run connects and pumps events until ctx is cancelled. A transport error is
// not surfaced to the caller: the client logs it, enters reconnecting state
// and retries with backoff. Closes the Events channel on return.
func (c *Client) Run(ctx context.Context) {
	defer close(c.events)

	failures := 0
	for {
		if ctx.Err() != nil {
			return
		}

		err := c.connectOnce(ctx, &failures)
		if ctx.Err() != nil {
			return
		}

		failures++
		wait := c.cfg.Backoff.delay(failures)
		log.Printf("[stream] connection lost (%v), reconnecting in %s", err, wait)
		c.setState(StateReconnecting)
		if c.OnReconnect != nil {
			c.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// connectOnce opens the stream and pumps frames until the transport fails.
// Resets the failure counter once the stream is open.
func (c *Client) connectOnce(ctx context.Context, failures *int) error {
	c.setState(StateConnecting)

	streamURL := c.cfg.BaseURL + "/stream?session_id=" + url.QueryEscape(c.cfg.SessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.cfg.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		drain(resp.Body)
		return fmt.Errorf("stream endpoint returned %s", resp.Status)
	}

	log.Printf("[stream] connected (session %s)", c.cfg.SessionID)
	c.setState(StateOpen)
	*failures = 0

	// A half-open connection never errors on its own; the watchdog closes
	// the body when no frame (heartbeats included) arrives within the idle
	// bound, failing the blocked read so the reconnect loop takes over.
	var stalled atomic.Bool
	watchdog := time.AfterFunc(c.cfg.ReadIdleTimeout, func() {
		stalled.Store(true)
		resp.Body.Close()
	})
	defer watchdog.Stop()

	r := bufio.NewReader(resp.Body)
	for {
		payload, err := readFrame(r)
		if err != nil {
			if stalled.Load() {
				return fmt.Errorf("no frames for %s, dropping stalled connection", c.cfg.ReadIdleTimeout)
			}
			return err
		}
		watchdog.Reset(c.cfg.ReadIdleTimeout)

		ev, err := model.DecodeEvent([]byte(payload))
		if err != nil {
			// One bad message never tears the connection down.
			log.Printf("[stream] dropping malformed message: %v", err)
			if c.OnDropped != nil {
				c.OnDropped(err)
			}
			continue
		}

		select {
		case c.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
