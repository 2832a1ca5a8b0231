package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/pharma-pulse/app/api"
	"github.com/lysyi3m/pharma-pulse/app/cfg"
	"github.com/lysyi3m/pharma-pulse/app/feed"
	"github.com/lysyi3m/pharma-pulse/app/query"
	"github.com/lysyi3m/pharma-pulse/app/tasks"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if config == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Pharma Pulse", "version", config.Version, "port", config.Port)

	registry, err := feed.LoadRegistry(config.SourcesFile)
	if err != nil {
		slog.Error("Failed to load sources", "file", config.SourcesFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Sources loaded", "count", registry.Len())

	fetcher := feed.NewFetcher(feed.FetcherOptions{
		Timeout:      config.FetchTimeout,
		MaxRedirects: config.MaxRedirects,
		UserAgent:    config.UserAgent,
	})
	cache := feed.NewSnapshotCache(config.CacheTTL)

	scheduler := tasks.NewScheduler(registry, fetcher, feed.NewParser(), feed.NewClassifier(), cache,
		config.RefreshInterval, config.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	engine := query.NewEngine(registry, cache, scheduler)
	generator := feed.NewGenerator(config.BaseUrl, config.Version)

	handler := api.NewHandler(registry, cache, engine, generator, scheduler, config.Version)

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr, "base_url", config.BaseUrl)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}
