package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"rsi-screener/config"
	"rsi-screener/internal/app"
	"rsi-screener/internal/logger"
	"rsi-screener/internal/metrics"
	"rsi-screener/internal/notify"
	"rsi-screener/internal/render"
	"rsi-screener/internal/screener"
	"rsi-screener/internal/store"
	redisstore "rsi-screener/internal/store/redis"
	sqlitestore "rsi-screener/internal/store/sqlite"
	"rsi-screener/internal/stream"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	configPath := flag.String("config", "", "optional YAML config file")
	logLevel := flag.String("log-level", "info", "slog level: debug|info|warn|error")
	flag.Parse()

	// .env is optional; absence is the normal case outside dev.
	_ = godotenv.Load()

	slogger := logger.Init("screener", logger.ParseLevel(*logLevel))
	cfg := config.Load(*configPath)
	slogger.Info("starting", slog.String("server", cfg.ServerURL), slog.String("store", cfg.StoreBackend))

	// ---- Durable store ----
	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("[screener] store init failed: %v", err)
	}
	defer st.Close()

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetStoreOK(true)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Notification backend ----
	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.WebhookURL)
		log.Printf("[screener] alert webhook enabled")
	}

	// ---- Assemble the client ----
	a, err := app.New(app.Options{
		ServerURL:      cfg.ServerURL,
		Store:          st,
		Renderer:       render.NewTable(os.Stdout),
		Notifier:       notifier,
		Backoff:        stream.Backoff{Initial: cfg.BackoffInitial, Max: cfg.BackoffMax},
		CommandTimeout: cfg.CommandTimeout,
		Metrics:        prom,
		Health:         health,
	})
	if err != nil {
		log.Fatalf("[screener] init failed: %v", err)
	}
	slogger.Info("session ready", slog.String("session_id", a.SessionID))

	ctx, cancel := context.WithCancel(logger.WithSession(context.Background(), a.SessionID))
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slogger.Info("shutdown signal received")
		cancel()
	}()

	go commandLoop(ctx, a)

	a.Run(ctx)

	metricsSrv.Stop(context.Background())
	slogger.Info("stopped", logger.SessionAttrs(ctx)...)
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o755); err != nil {
			return nil, err
		}
		return sqlitestore.New(sqlitestore.Config{Path: cfg.StorePath})
	case "redis":
		return redisstore.New(redisstore.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// commandLoop reads control commands from stdin: start, stop, reset, status,
// export <file>, import <file>.
func commandLoop(ctx context.Context, a *app.App) {
	sc := bufio.NewScanner(os.Stdin)

	// Reset is destructive; confirmation reads the next stdin line through
	// the same scanner so the two readers never interleave.
	a.Commands.Confirm = func() bool {
		fmt.Print("reset clears all cached data and stops the screener. confirm? [y/N] ")
		if !sc.Scan() {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(sc.Text()), "y")
	}

	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "start":
			if err := a.Commands.Start(ctx); err != nil {
				log.Printf("[screener] start: %v", err)
			}
		case "stop":
			if err := a.Commands.Stop(ctx); err != nil {
				log.Printf("[screener] stop: %v", err)
			}
		case "reset":
			if err := a.Commands.Reset(ctx); err != nil {
				log.Printf("[screener] reset: %v", err)
			}
		case "status":
			fmt.Printf("stream=%s session=%s run=%v\n", a.StreamState(), a.SessionID, a.State.Get())
		case "config":
			cfg := a.Config.Current()
			for _, g := range screener.Groups() {
				fmt.Printf("[%s]\n", g.Name)
				for _, fld := range g.Fields {
					v, _ := screener.FieldValue(&cfg, fld.Name)
					fmt.Printf("  %s = %s\n", fld.Name, v)
				}
			}
		case "set":
			if len(fields) < 3 {
				fmt.Println("usage: set <field> <value>")
				continue
			}
			cfg := a.Config.Current()
			if err := screener.SetFieldValue(&cfg, fields[1], strings.Join(fields[2:], " ")); err != nil {
				log.Printf("[screener] set: %v", err)
				continue
			}
			if err := a.Config.Save(cfg); err != nil {
				log.Printf("[screener] save: %v", err)
				continue
			}
			fmt.Println("saved; applies on next start")
		case "export":
			data, name, err := a.ExportConfig()
			if err != nil {
				log.Printf("[screener] export: %v", err)
				continue
			}
			if len(fields) > 1 {
				name = fields[1]
			}
			if err := os.WriteFile(name, data, 0o644); err != nil {
				log.Printf("[screener] export write: %v", err)
				continue
			}
			fmt.Printf("settings written to %s\n", name)
		case "import":
			if len(fields) < 2 {
				fmt.Println("usage: import <file>")
				continue
			}
			data, err := os.ReadFile(fields[1])
			if err != nil {
				log.Printf("[screener] import read: %v", err)
				continue
			}
			if err := a.ImportConfig(data); err != nil {
				log.Printf("[screener] import: %v", err)
			}
		default:
			fmt.Println("commands: start | stop | reset | status | config | set <field> <value> | export [file] | import <file>")
		}
	}
}
