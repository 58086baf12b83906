// cmd/screenersim — Development dashboard server simulator.
// Speaks the same wire protocol as the production screener server so the
// client can be exercised without exchange access: per-session control
// endpoints plus an SSE stream of synthetic indicator snapshots.
//
// Endpoints:
//
//	GET  /api/defaults          — built-in default configuration
//	POST /api/start             — {"session_id": ..., "config": {...}}
//	POST /api/stop              — {"session_id": ...}
//	POST /api/reset             — {"session_id": ...}
//	GET  /stream?session_id=... — SSE event stream, heartbeat every 25s
//
// Config (env vars):
//
//	SIM_ADDR — listen address (default ":5000")
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rsi-screener/internal/model"
	"rsi-screener/internal/screener"
)

const (
	queueSize         = 256
	heartbeatInterval = 25 * time.Second
)

// session holds per-session simulation state.
type session struct {
	mu      sync.Mutex
	cfg     screener.Config
	running bool
	stop    chan struct{}
	queue   chan []byte // encoded envelopes, dropped when full
	prices  map[string]float64
}

type simulator struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSimulator() *simulator {
	return &simulator{sessions: make(map[string]*session)}
}

func (s *simulator) session(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := &session{
		cfg:    screener.Default(),
		queue:  make(chan []byte, queueSize),
		prices: make(map[string]float64),
	}
	s.sessions[id] = sess
	return sess
}

// push enqueues one envelope, dropping it when the session queue is full
// (slow or absent stream consumer).
func (sess *session) push(kind model.EventKind, data any) {
	env := struct {
		Type string `json:"type"`
		Data any    `json:"data,omitempty"`
	}{string(kind), data}
	b, err := json.Marshal(env)
	if err != nil {
		log.Printf("[screenersim] marshal %s: %v", kind, err)
		return
	}
	select {
	case sess.queue <- b:
	default:
	}
}

// ─── Control handlers ────────────────────────────────────────────────────────

type controlRequest struct {
	SessionID string           `json:"session_id"`
	Config    *screener.Config `json:"config,omitempty"`
}

func decodeControl(w http.ResponseWriter, r *http.Request) (controlRequest, bool) {
	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		http.Error(w, `{"error":"session_id required"}`, http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func writeStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *simulator) handleDefaults(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(screener.Default())
}

func (s *simulator) handleStart(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeControl(w, r)
	if !ok {
		return
	}
	sess := s.session(req.SessionID)

	sess.mu.Lock()
	if sess.running {
		sess.mu.Unlock()
		writeStatus(w, "already_running")
		return
	}
	if req.Config != nil && req.Config.Valid() {
		sess.cfg = req.Config.Clone()
	}
	sess.running = true
	sess.stop = make(chan struct{})
	stop := sess.stop
	assetCount := len(sess.cfg.Assets)
	sess.mu.Unlock()

	log.Printf("[screenersim] session %s started (%d assets)", req.SessionID, assetCount)
	sess.push(model.EventStatus, model.Status{Running: true})
	sess.push(model.EventLog, model.LogMessage{Message: "screener started", Level: "info"})
	go sess.runCycles(stop)

	writeStatus(w, "started")
}

func (s *simulator) handleStop(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeControl(w, r)
	if !ok {
		return
	}
	sess := s.session(req.SessionID)
	sess.halt()
	log.Printf("[screenersim] session %s stopped", req.SessionID)
	writeStatus(w, "stopped")
}

func (s *simulator) handleReset(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeControl(w, r)
	if !ok {
		return
	}
	sess := s.session(req.SessionID)
	sess.halt()

	sess.mu.Lock()
	sess.prices = make(map[string]float64)
	sess.mu.Unlock()

	sess.push(model.EventReset, nil)
	log.Printf("[screenersim] session %s reset", req.SessionID)
	writeStatus(w, "reset")
}

// halt stops the cycle loop if running and emits the status transition.
func (sess *session) halt() {
	sess.mu.Lock()
	wasRunning := sess.running
	if sess.running {
		close(sess.stop)
		sess.running = false
	}
	sess.mu.Unlock()

	if wasRunning {
		sess.push(model.EventStatus, model.Status{Running: false})
		sess.push(model.EventLog, model.LogMessage{Message: "screener stopped", Level: "warning"})
	}
}

// ─── Stream handler ──────────────────────────────────────────────────────────

func (s *simulator) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	sess := s.session(sessionID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	log.Printf("[screenersim] stream open: session %s from %s", sessionID, r.RemoteAddr)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("[screenersim] stream closed: session %s", sessionID)
			return
		case msg := <-sess.queue:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, "data: %s\n\n", `{"type":"heartbeat"}`)
			flusher.Flush()
		}
	}
}

// ─── Cycle generator ─────────────────────────────────────────────────────────

// runCycles emits one snapshot per configured asset, a cycle summary, then a
// per-second countdown until the next pass. Timeframe minutes compress to
// seconds so a full cycle is observable interactively.
func (sess *session) runCycles(stop chan struct{}) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		sess.mu.Lock()
		cfg := sess.cfg.Clone()
		sess.mu.Unlock()

		for _, symbol := range cfg.Assets {
			select {
			case <-stop:
				return
			default:
			}
			sess.push(model.EventAssetUpdate, sess.snapshot(rng, cfg, symbol))
			time.Sleep(150 * time.Millisecond)
		}

		sess.push(model.EventCycleComplete, model.CycleComplete{
			Timestamp: time.Now().Format("15:04:05"),
			Count:     len(cfg.Assets),
			Total:     len(cfg.Assets),
		})

		interval := int(cfg.Timeframe)
		if interval < 3 {
			interval = 3
		}
		for left := interval; left > 0; left-- {
			sess.push(model.EventCountdown, model.Countdown{SecondsLeft: left})
			select {
			case <-stop:
				return
			case <-time.After(1 * time.Second):
			}
		}
	}
}

// snapshot fabricates one indicator snapshot: random-walk price, plausible
// oscillator values, and deliberately absent fields early on (the real
// server omits indicators until enough candle history exists).
func (sess *session) snapshot(rng *rand.Rand, cfg screener.Config, symbol string) model.AssetSnapshot {
	sess.mu.Lock()
	price, seen := sess.prices[symbol]
	if !seen {
		price = 100 + rng.Float64()*60000
	}
	price *= 1 + (rng.Float64()*0.4-0.2)/100
	sess.prices[symbol] = price
	sess.mu.Unlock()

	snap := model.AssetSnapshot{Symbol: symbol, Price: f(price)}

	// Warmup: first sight of a symbol reports no indicators at all, so the
	// client's placeholder rendering gets exercised.
	if !seen {
		snap.RSINote = "warming up"
		return snap
	}

	rsi := 20 + rng.Float64()*60
	snap.RSI = f(rsi)
	if rsi > cfg.RSIOverbought {
		snap.Alerts = append(snap.Alerts, model.Alert{Type: "RSI Overbought", Level: model.AlertDanger})
	} else if rsi < cfg.RSIOversold {
		snap.Alerts = append(snap.Alerts, model.Alert{Type: "RSI Oversold", Level: model.AlertSuccess})
	}

	k := 10 + rng.Float64()*80
	snap.StochK = f(k)
	snap.StochD = f(k + rng.Float64()*6 - 3)

	ema := price * (1 - rng.Float64()*0.02)
	snap.EMALong = f(ema)
	if price >= ema {
		snap.EMALongPosition = "ABOVE"
	} else {
		snap.EMALongPosition = "BELOW"
	}
	snap.EMAShort = f(price * (1 - rng.Float64()*0.005))

	atr := price * (0.002 + rng.Float64()*0.01)
	snap.ATR = f(atr)
	snap.ATRRatio = f(atr / price)

	// Linear regression block appears intermittently; the higher-timeframe
	// variant needs even more history and stays absent most of the time.
	if rng.Intn(4) > 0 {
		trend := []string{"UPTREND", "DOWNTREND", "SIDEWAYS"}[rng.Intn(3)]
		snap.LRTrend = &trend
		snap.LRConfidence = f(40 + rng.Float64()*60)
		snap.LRRSquared = f(rng.Float64())
		snap.LRNormSlope = f(rng.Float64()*2 - 1)
		snap.LRTFLabel = fmt.Sprintf("%dm", int(cfg.Timeframe))
	} else {
		snap.LRNote = "insufficient data"
	}

	return snap
}

func f(v float64) *float64 { return &v }

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	addr := os.Getenv("SIM_ADDR")
	if addr == "" {
		addr = ":5000"
	}

	sim := newSimulator()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/defaults", sim.handleDefaults)
	r.Post("/api/start", sim.handleStart)
	r.Post("/api/stop", sim.handleStop)
	r.Post("/api/reset", sim.handleReset)
	r.Get("/stream", sim.handleStream)

	log.Printf("[screenersim] listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("[screenersim] server error: %v", err)
	}
}
