package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"newsharvest/internal/config"
	"newsharvest/internal/extract"
	"newsharvest/internal/fetcher"
	"newsharvest/internal/pipeline"
	"newsharvest/internal/storage"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "Path to ingestion configuration file")
	flag.Parse()

	// Optional .env for local credentials; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if dsn := os.Getenv("NEWSHARVEST_DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.Options{
		UserAgent:    cfg.Fetch.UserAgent,
		Headers:      cfg.Fetch.Headers,
		Timeout:      cfg.Fetch.RequestTimeout.Duration,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})

	var renderer fetcher.Renderer
	if cfg.Rendering.Enabled {
		renderer = fetcher.NewChromedpRenderer(fetcher.RenderOptions{
			Timeout:            cfg.Rendering.Timeout.Duration,
			WaitForSelector:    cfg.Rendering.WaitForSelector,
			UserAgent:          cfg.Fetch.UserAgent,
			MaxBodyBytes:       cfg.Fetch.MaxBodyBytes,
			DisableHeadless:    cfg.Rendering.DisableHeadless,
			ConcurrentSessions: cfg.Rendering.ConcurrentSessions,
			CaptureDelay:       cfg.Rendering.CaptureDelay.Duration,
		}, logger)
	}
	composite := fetcher.NewComposite(httpFetcher, renderer, logger)

	engine := pipeline.New(*cfg, composite, extract.New(cfg.Site), store, store, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := engine.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}

	logger.Info("ingestion finished",
		"run_id", report.RunID,
		"discovered", report.Discovered,
		"persisted", report.Persisted,
		"already_persisted", report.AlreadyPersisted,
		"failed", report.Failed,
	)
	for _, link := range report.Links {
		if link.Failed() {
			logger.Warn("link failed", "url", link.URL, "stage", string(link.Stage), "error", link.Err)
		}
	}
}

func buildLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Structured {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler), nil
}
