// Package config loads process-level client configuration: an optional YAML
// file overlaid by environment variables. This is wiring configuration
// (server URL, store backend, backoff); the screening parameters themselves
// live in internal/screener and follow their own resolution path.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all client process configuration.
type Config struct {
	// ServerURL is the dashboard server base URL.
	ServerURL string `yaml:"server_url"`

	// StoreBackend selects the durable store: "sqlite", "redis" or "memory".
	StoreBackend string `yaml:"store_backend"`
	StorePath    string `yaml:"store_path"` // sqlite file
	RedisAddr    string `yaml:"redis_addr"`
	RedisPass    string `yaml:"redis_password"`

	// Reconnect backoff bounds for the stream client.
	BackoffInitial time.Duration `yaml:"backoff_initial"`
	BackoffMax     time.Duration `yaml:"backoff_max"`

	// CommandTimeout bounds every control/defaults HTTP call.
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// MetricsAddr is the /metrics + /healthz listen address.
	MetricsAddr string `yaml:"metrics_addr"`

	// WebhookURL, when set, receives alert notifications.
	WebhookURL string `yaml:"webhook_url"`
}

// Load reads the optional YAML file at path (ignored when absent), then
// applies environment overrides and defaults.
func Load(path string) *Config {
	cfg := &Config{}

	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(b, cfg); err != nil {
				log.Fatalf("[config] bad config file %s: %v", path, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("[config] read %s: %v", path, err)
		}
	}

	cfg.ServerURL = getEnv("SCREENER_SERVER_URL", defaultStr(cfg.ServerURL, "http://localhost:5000"))
	cfg.StoreBackend = getEnv("SCREENER_STORE", defaultStr(cfg.StoreBackend, "sqlite"))
	cfg.StorePath = getEnv("SCREENER_STORE_PATH", defaultStr(cfg.StorePath, "data/screener.db"))
	cfg.RedisAddr = getEnv("REDIS_ADDR", defaultStr(cfg.RedisAddr, "localhost:6379"))
	cfg.RedisPass = getEnv("REDIS_PASSWORD", cfg.RedisPass)
	cfg.MetricsAddr = getEnv("METRICS_ADDR", defaultStr(cfg.MetricsAddr, ":9091"))
	cfg.WebhookURL = getEnv("SCREENER_WEBHOOK_URL", cfg.WebhookURL)

	cfg.BackoffInitial = envDuration("SCREENER_BACKOFF_INITIAL", defaultDur(cfg.BackoffInitial, time.Second))
	cfg.BackoffMax = envDuration("SCREENER_BACKOFF_MAX", defaultDur(cfg.BackoffMax, 30*time.Second))
	cfg.CommandTimeout = envDuration("SCREENER_COMMAND_TIMEOUT", defaultDur(cfg.CommandTimeout, 15*time.Second))

	return cfg
}

func defaultStr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defaultDur(v, fallback time.Duration) time.Duration {
	if v == 0 {
		return fallback
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("[config] ignoring invalid duration %s=%q", key, v)
	return fallback
}
