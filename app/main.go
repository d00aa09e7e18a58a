package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msavelyev/productscout/app/api"
	"github.com/msavelyev/productscout/app/cache"
	"github.com/msavelyev/productscout/app/catalog"
	"github.com/msavelyev/productscout/app/cfg"
	"github.com/msavelyev/productscout/app/enrich"
	"github.com/msavelyev/productscout/app/feed"
	"github.com/msavelyev/productscout/app/lookup"
	"github.com/msavelyev/productscout/app/pipeline"
	"github.com/msavelyev/productscout/app/schedule"
	"github.com/msavelyev/productscout/app/sink"
	"github.com/msavelyev/productscout/app/store"
	"github.com/msavelyev/productscout/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting ProductScout server", "version", appCfg.Version)

	kv, err := newStore(appCfg)
	if err != nil {
		slog.Error("Failed to initialize store", "backend", appCfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer kv.Close()
	slog.Info("Store initialized", "backend", appCfg.StoreBackend)

	sourceConfigs := feed.NewConfigCache(appCfg.SourcesDir)
	if err := sourceConfigs.Run(); err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", sourceConfigs.GetConfigCount())

	httpClient := &http.Client{Timeout: 60 * time.Second}

	repo := catalog.NewRepository(kv)
	enrichmentCache := cache.New(kv, appCfg.CacheCapacity)
	gate := schedule.NewGate(kv, time.Duration(appCfg.PipelineInterval)*time.Second)

	searchClient := lookup.NewWebClient(httpClient, appCfg.SearchAPIKey, appCfg.SearchEngineID)
	profileWorker := enrich.NewProfileWorker(searchClient, enrichmentCache, repo,
		appCfg.SearchSite,
		time.Duration(appCfg.ProfileCacheTTL)*time.Hour,
		time.Duration(appCfg.LookupDelayMs)*time.Millisecond)

	scrapeWorker := enrich.NewScrapeWorker(httpClient, enrichmentCache, repo,
		time.Duration(appCfg.ScrapeCacheTTL)*time.Hour,
		appCfg.ScrapeRetries,
		time.Duration(appCfg.ScrapeBackoffMs)*time.Millisecond,
		time.Duration(appCfg.ScrapeTimeout)*time.Second)

	sheetsSink := sink.NewSheetsSink(appCfg.SheetsCredentials, appCfg.SpreadsheetID, appCfg.SheetTab, sink.Header)
	if !sheetsSink.Available() {
		slog.Warn("Sink not configured, approved records will not be exported")
	}
	reconciler := sink.NewReconciler(sheetsSink)

	runner := pipeline.NewRunner(gate, sourceConfigs,
		feed.NewFetcher(httpClient, appCfg.UserAgent), feed.NewParser(),
		catalog.NewNormalizer(), repo, profileWorker, scrapeWorker, reconciler,
		enrichmentCache, time.Duration(appCfg.ScheduleRetentionDays)*24*time.Hour)

	taskScheduler := tasks.NewScheduler(runner, sourceConfigs)
	taskScheduler.Start()
	defer taskScheduler.Stop()
	slog.Info("Background scheduler started", "interval", appCfg.SchedulerInterval, "workers", appCfg.WorkerCount)

	handler := api.NewHandler(runner, repo, enrichmentCache, gate, kv, sourceConfigs)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}

	slog.Info("Shutdown complete")
}

func newStore(appCfg *cfg.Cfg) (store.Store, error) {
	if appCfg.StoreBackend == "redis" {
		return store.NewRedisStore(appCfg.RedisAddr)
	}
	return store.NewSQLiteStore(appCfg.SQLitePath)
}
