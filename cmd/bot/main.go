package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/almadodi738-lang/tv2tg-alerts/internal/api"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/collector"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/config"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/metrics"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/monitor"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/notifier"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/recorder"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/risk"
	"github.com/almadodi738-lang/tv2tg-alerts/internal/scheduler"
)

func newFetcher(cfg *config.Config) collector.Fetcher {
	ds := cfg.DataSource
	switch ds.Provider {
	case config.ProviderBinance:
		return collector.NewBinanceFetcher(ds.APIKey, ds.SecretKey)
	case config.ProviderREST:
		return collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy)
	case config.ProviderMock:
		return &collector.MockFetcher{Price: 100}
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] tv2tg-alerts starting...")

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
	loc := cfg.Location()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Market data
	fetcher := newFetcher(cfg)
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.DataSource.Interval, cfg.DataSource.Lookback,
		cfg.DataSource.FetchTimeout, cfg.Strategy.Periods)

	// Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	if !tn.Configured() {
		log.Println("[WARN] TELEGRAM_TOKEN or TELEGRAM_CHAT_ID missing, notifications will be skipped")
	}

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

	tracker := risk.NewTracker(risk.Config{
		StartBalance:      cfg.Risk.AccountBalance,
		DailyLossLimitPct: cfg.Risk.DailyLossLimitPct,
		Location:          loc,
	})

	mon := monitor.New(monitor.Config{
		Instruments:       cfg.Symbols,
		PollInterval:      cfg.Monitor.PollInterval,
		MinResendInterval: cfg.Monitor.MinResendInterval,
		Params:            cfg.Strategy,
		AccountBalance:    cfg.Risk.AccountBalance,
		RiskPercent:       cfg.Risk.RiskPercent,
		NotifyErrors:      cfg.Monitor.NotifyErrors,
		Location:          loc,
		TZLabel:           cfg.TZLabel(),
	}, col, tn, rec, m)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scheduler
	sched := scheduler.NewScheduler(ctx, mon, tracker, tn, rec, m, loc)
	if err := sched.RegisterAll(cfg.Schedule.DailySummaryCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	printStartupInfo(cfg, fetcher.Name(), tn.Configured())

	// HTTP server
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           api.NewServer(sched, tn, m, cfg.Server.SharedSecret, cfg.TZLabel()).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[INFO] http server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] http server: %v", err)
		}
	}()

	// Telegram polling
	if cfg.Telegram.PollCommands {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: report a first scan immediately, then poll on the normal cadence
	if cfg.RunOnStart {
		log.Println("[INFO] RUN_ON_START enabled, executing scan now")
		go func() {
			pass := sched.ScanNow(ctx)
			tn.Notify(ctx, notifier.FormatScanResults(pass.Results))
			mon.RunAfter(ctx, cfg.Monitor.PollInterval)
		}()
	} else {
		go mon.Run(ctx)
	}

	log.Println("[INFO] tv2tg-alerts is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] tv2tg-alerts stopped")
}
