// Package metrics exposes Prometheus metrics and a health endpoint for the
// dashboard client.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the client.
type Metrics struct {
	EventsTotal      *prometheus.CounterVec // labels: type
	MalformedDropped prometheus.Counter
	StreamReconnects prometheus.Counter
	CommandFailures  *prometheus.CounterVec // labels: command
	PersistFailures  prometheus.Counter
	CachedSymbols    prometheus.Gauge
	StreamState      prometheus.Gauge // 0=connecting, 1=open, 2=reconnecting
}

// NewMetrics registers and returns all client metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_events_total",
			Help: "Stream events handled, by event type",
		}, []string{"type"}),
		MalformedDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_malformed_events_dropped_total",
			Help: "Inbound stream messages dropped as malformed",
		}),
		StreamReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_stream_reconnects_total",
			Help: "Stream reconnection attempts",
		}),
		CommandFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_command_failures_total",
			Help: "Failed control commands, by command",
		}, []string{"command"}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_persist_failures_total",
			Help: "Durable store write failures (non-fatal)",
		}),
		CachedSymbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_cached_symbols",
			Help: "Symbols currently held in the asset cache",
		}),
		StreamState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_stream_state",
			Help: "Stream connection state (0=connecting, 1=open, 2=reconnecting)",
		}),
	}

	prometheus.MustRegister(
		m.EventsTotal,
		m.MalformedDropped,
		m.StreamReconnects,
		m.CommandFailures,
		m.PersistFailures,
		m.CachedSymbols,
		m.StreamState,
	)
	return m
}

// HealthStatus tracks liveness facts surfaced by /healthz.
type HealthStatus struct {
	mu sync.RWMutex

	StartedAt     time.Time
	StreamOpen    bool
	StoreOK       bool
	LastEventTime time.Time
	SessionID     string
}

// NewHealthStatus creates a HealthStatus with StartedAt set to now.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetStreamOpen(open bool) {
	h.mu.Lock()
	h.StreamOpen = open
	h.mu.Unlock()
}

func (h *HealthStatus) SetStoreOK(ok bool) {
	h.mu.Lock()
	h.StoreOK = ok
	h.mu.Unlock()
}

func (h *HealthStatus) SetSessionID(id string) {
	h.mu.Lock()
	h.SessionID = id
	h.mu.Unlock()
}

func (h *HealthStatus) MarkEvent() {
	h.mu.Lock()
	h.LastEventTime = time.Now()
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overall := "healthy"
	code := http.StatusOK
	if !h.StreamOpen {
		overall = "degraded"
		code = http.StatusServiceUnavailable
	}

	eventAge := ""
	if !h.LastEventTime.IsZero() {
		eventAge = time.Since(h.LastEventTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status     string `json:"status"`
		Uptime     string `json:"uptime"`
		StreamOpen bool   `json:"stream_open"`
		StoreOK    bool   `json:"store_ok"`
		EventAge   string `json:"event_age"`
		SessionID  string `json:"session_id"`
	}{
		Status:     overall,
		Uptime:     time.Since(h.StartedAt).Round(time.Second).String(),
		StreamOpen: h.StreamOpen,
		StoreOK:    h.StoreOK,
		EventAge:   eventAge,
		SessionID:  h.SessionID,
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
