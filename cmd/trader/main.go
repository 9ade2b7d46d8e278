package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polytrader/config"
	"github.com/alejandrodnm/polytrader/internal/adapters/notify"
	"github.com/alejandrodnm/polytrader/internal/adapters/oracle"
	"github.com/alejandrodnm/polytrader/internal/adapters/polymarket"
	"github.com/alejandrodnm/polytrader/internal/adapters/storage"
	"github.com/alejandrodnm/polytrader/internal/detector"
	"github.com/alejandrodnm/polytrader/internal/engine"
	"github.com/alejandrodnm/polytrader/internal/ledger"
	"github.com/alejandrodnm/polytrader/internal/ports"
	"github.com/alejandrodnm/polytrader/internal/ratelimit"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one trading cycle and exit")
	dryRun := flag.Bool("dry-run", false, "simulate trades without placing orders")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("polytrader starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"dry_run", *dryRun,
		"once", *once,
	)

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.API.APIKey)

	estimator := oracle.New(oracle.Config{
		BaseURL:     cfg.Oracle.BaseURL,
		APIKey:      cfg.Oracle.APIKey,
		Model:       cfg.Oracle.Model,
		Temperature: cfg.Oracle.Temperature,
		MaxTokens:   cfg.Oracle.MaxTokens,
	})

	var researcher ports.Researcher = oracle.StaticResearcher{}
	if cfg.Oracle.ResearchBase != "" {
		researcher = oracle.NewResearcher(cfg.Oracle.ResearchBase, cfg.Oracle.APIKey)
	}

	// En dry-run el estado vive en archivos JSON inspeccionables; en real,
	// en SQLite.
	var store ports.Storage
	if *dryRun {
		store, err = storage.NewFile(cfg.Storage.Dir)
	} else {
		store, err = storage.NewSQLite(cfg.Storage.DSN)
	}
	if err != nil {
		slog.Error("failed to open storage", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	book := ledger.New(ctx, store, cfg.Trading.BankrollUSDC)
	det := detector.New(detector.Config{
		MispricingThreshold: cfg.Trading.MispricingThreshold,
		MaxMarkets:          cfg.Scanner.MaxLLMAnalyses,
	}, researcher, estimator)
	limiter := ratelimit.New(cfg.RateLimit.MaxOrders, cfg.RateWindow())
	notifier := notify.NewConsole(*table)

	eng := engine.New(engine.Config{
		Bankroll:            cfg.Trading.BankrollUSDC,
		MispricingThreshold: cfg.Trading.MispricingThreshold,
		MaxKellyFraction:    cfg.Trading.MaxKellyFraction,
		ScanInterval:        cfg.ScanInterval(),
		MaxPositions:        cfg.Trading.MaxPositions,
		StopLossBankroll:    cfg.Trading.StopLossBankroll,
		MinBalance:          cfg.Trading.MinBalanceUSDC,
		MarketLimit:         cfg.Scanner.MarketLimit,
		MinVolume:           cfg.Scanner.MinVolume24h,
		DryRun:              *dryRun,
	}, client, det, client, book, store, limiter, notifier)

	if *once {
		eng.RunOnce(ctx)
		slog.Info("polytrader stopped cleanly")
		return
	}

	if err := eng.Run(ctx); err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("polytrader stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
