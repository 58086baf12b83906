package screener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"rsi-screener/internal/store"
)

// Manager owns the effective configuration: resolution on startup, user
// edits, and import/export. It never touches a running stream — a saved
// configuration takes effect on the next start command.
type Manager struct {
	st          store.Store
	client      *http.Client
	defaultsURL string

	cfg Config

	// OnPersistFailure fires on every tolerated store write failure (metrics).
	OnPersistFailure func()
}

// NewManager creates a Manager. defaultsURL is the server defaults endpoint,
// e.g. "http://localhost:5000/api/defaults".
func NewManager(st store.Store, client *http.Client, defaultsURL string) *Manager {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Manager{st: st, client: client, defaultsURL: defaultsURL}
}

// Current returns a copy of the effective configuration.
func (m *Manager) Current() Config {
	return m.cfg.Clone()
}

// Load resolves the effective configuration: durable cache if it passes the
// validity gate, else server defaults, else the built-in fallback. Every
// successful path persists the result, so the next load is local.
func (m *Manager) Load(ctx context.Context) Config {
	var cached Config
	if ok, err := m.st.Get(store.KeyConfig, &cached); err != nil {
		log.Printf("[config] cache read failed: %v", err)
	} else if ok && cached.Valid() {
		m.cfg = cached
		m.persist()
		return m.Current()
	}

	if cfg, err := m.fetchDefaults(ctx); err != nil {
		log.Printf("[config] defaults fetch failed, using built-in: %v", err)
		m.cfg = Default()
	} else {
		m.cfg = cfg
	}
	m.persist()
	return m.Current()
}

// Save replaces the effective configuration and persists it. The asset-list
// validity gate applies to edits as well as imports.
func (m *Manager) Save(cfg Config) error {
	if !cfg.Valid() {
		return ErrInvalidConfig
	}
	m.cfg = cfg.Clone()
	m.persist()
	return nil
}

// Export serializes the current configuration as a pretty-printed JSON
// document and returns it with its download filename, which embeds the ISO
// calendar date.
func (m *Manager) Export(now time.Time) ([]byte, string, error) {
	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("config export: %w", err)
	}
	name := "screener_settings_" + now.Format("2006-01-02") + ".json"
	return data, name, nil
}

// Import parses an uploaded JSON document as a full configuration. The
// document is rejected — current configuration untouched — unless it carries
// a non-empty Assets list; a JSON syntax error surfaces the parser's message.
func (m *Manager) Import(data []byte) error {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("config import: invalid JSON: %w", err)
	}
	if !cfg.Valid() {
		return fmt.Errorf("config import: missing or empty Assets list: %w", ErrInvalidConfig)
	}
	m.cfg = cfg
	m.persist()
	return nil
}

func (m *Manager) fetchDefaults(ctx context.Context) (Config, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.defaultsURL, nil)
	if err != nil {
		return Config{}, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return Config{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Config{}, fmt.Errorf("defaults endpoint returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(body, &cfg); err != nil {
		return Config{}, fmt.Errorf("malformed defaults body: %w", err)
	}
	if !cfg.Valid() {
		return Config{}, fmt.Errorf("defaults body failed validity gate: %w", ErrInvalidConfig)
	}
	return cfg, nil
}

// persist writes the configuration to the durable store. Failure is logged
// and tolerated — in-memory state stays correct.
func (m *Manager) persist() {
	if err := m.st.Put(store.KeyConfig, &m.cfg); err != nil {
		log.Printf("[config] persist failed: %v", err)
		if m.OnPersistFailure != nil {
			m.OnPersistFailure()
		}
	}
}
