package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"b3monitor/internal/collector"
	"b3monitor/internal/config"
	"b3monitor/internal/model"
	"b3monitor/internal/recorder"
	"b3monitor/internal/scheduler"
	"b3monitor/internal/screener"
	"b3monitor/internal/universe"
	"b3monitor/internal/web"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] b3monitor starting...")

	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

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

	// Ticker universe: brapi list with CSV fallback
	lister := universe.NewBrapiClient(cfg.Universe.BrapiURL, cfg.Universe.Token, cfg.Universe.Limit, cfg.Proxy)
	resolver := universe.NewResolver(lister, cfg.Universe.FallbackCSV)

	// Price fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewBrapiFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] price source: %s", fetcher.Name())

	col := collector.NewCollector(fetcher, cfg.Screen.LookbackDays, cfg.Screen.MaxConcurrent)

	// Recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	defaults := model.ScreenParams{
		Weeks:        cfg.Screen.DefaultWeeks,
		MinReturnPct: cfg.Screen.DefaultMinReturn,
	}
	scr := screener.New(resolver, col, rec, defaults)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic refresh
	sched := scheduler.NewScheduler(ctx, scr)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// First collection pass so the dashboard has data soon after boot
	go sched.RunRefreshNow()

	// HTTP server
	srv := web.NewServer(cfg.Server.Addr, scr, sched, defaults, web.Limits{
		MinWeeks:     cfg.Screen.MinWeeks,
		MaxWeeks:     cfg.Screen.MaxWeeks,
		MaxReturnPct: 1000,
	})
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Println("[INFO] b3monitor is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal or server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case err := <-errCh:
		log.Printf("[ERROR] http server: %v", err)
	}

	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}
	log.Println("[INFO] b3monitor stopped")
}
