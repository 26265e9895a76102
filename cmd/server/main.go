package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"StockForecaster/internal/chart"
	"StockForecaster/internal/collector"
	"StockForecaster/internal/config"
	"StockForecaster/internal/forecast"
	"StockForecaster/internal/handler"
	"StockForecaster/internal/logger"
	"StockForecaster/internal/lstm"
	"StockForecaster/internal/notifier"
	"StockForecaster/internal/recorder"
	"StockForecaster/internal/scheduler"
)

func main() {
	// Runs after every other deferred cleanup.
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("[FATAL] init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	lg.Info("StockForecaster starting", zap.String("config", cfgPath))

	// Init fetcher
	var fetcher collector.Fetcher
	ds := cfg.DataSource
	switch ds.Provider {
	case config.ProviderREST:
		fetcher = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, ds.Proxy, ds.Timeout)
	case config.ProviderMock:
		fetcher = &collector.MockFetcher{Price: 100, Bars: 2600}
	default:
		fetcher = collector.NewYahooFetcher(ds.BaseURL, ds.Proxy, ds.Timeout)
	}
	lg.Info("data source", zap.String("provider", fetcher.Name()), zap.Int("lookback_years", ds.LookbackYears))
	col := collector.NewCollector(fetcher, ds.LookbackYears, lg)

	// Charts
	store, err := chart.NewStore(cfg.Media.Root, cfg.Media.BaseURL)
	if err != nil {
		lg.Fatal("init media store", zap.Error(err))
	}

	// Model: loaded once, shared by every request
	models := lstm.NewSource(cfg.Model.Path, lg)
	if err := models.Ready(); err != nil {
		lg.Warn("model not loaded at startup; predictions fail until it is in place",
			zap.String("path", models.Path()), zap.Error(err))
	}

	// Init recorder
	var (
		rec     recorder.Recorder
		history *recorder.SQLiteRecorder
	)
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, lg)
		if err != nil {
			lg.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec, history = sr, sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline := forecast.NewPipeline(col, chart.NewRenderer(store), models, rec, lg)

	// Init scheduler
	sched := scheduler.NewScheduler(store, cfg.Media.Retention, models, lg)
	sched.ModelPath = models.Path()
	if err := sched.RegisterAll(cfg.Media.SweepCron); err != nil {
		lg.Fatal("register cron tasks", zap.Error(err))
	}

	// Optional Telegram digest and commands
	if cfg.TelegramEnabled() {
		tn := notifier.NewTelegramNotifier("", cfg.Telegram.BotToken, cfg.Telegram.ChatID, ds.Proxy, lg)
		if history != nil {
			if err := sched.EnableDigest(ctx, cfg.Telegram.DigestCron, history, tn); err != nil {
				lg.Fatal("register digest task", zap.Error(err))
			}
		} else {
			lg.Warn("telegram digest needs database.sqlite_path; only commands are enabled")
		}
		go tn.StartPolling(ctx, sched.HandleCommand)
		lg.Info("telegram polling started")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(lg))
	(&handler.HealthHandler{Models: models}).Register(r)
	(&handler.PredictHandler{Forecaster: pipeline}).Register(r)
	if strings.HasPrefix(cfg.Media.BaseURL, "/") {
		r.Static(cfg.Media.BaseURL, cfg.Media.Root)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		lg.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal or a server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	if err := waitForShutdown(sigCh, serveErr); err != nil {
		lg.Error("http server failed, stopping...", zap.Error(err))
		exitCode = 1
	} else {
		lg.Info("shutdown signal received, stopping...")
	}
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown", zap.Error(err))
	}
	lg.Info("StockForecaster stopped")
}

// waitForShutdown blocks until a signal arrives (nil) or the server fails (its error).
func waitForShutdown(sigCh <-chan os.Signal, serveErr <-chan error) error {
	select {
	case <-sigCh:
		return nil
	case err := <-serveErr:
		return err
	}
}
