// Package main wires together the listing API service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/api"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/clock/system"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/config"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/extractor"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/fetcher/auto"
	collyfetcher "github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/fetcher/colly"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/fetcher/detector"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/fetcher/headless"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/id/uuid"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/logging"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/scrape"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	newHeadless := func() *headless.Fetcher {
		headlessFetcher, err := headless.New(headless.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Scraper.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("headless fetcher init failed", zap.Error(err))
		}
		return headlessFetcher
	}
	newColly := func() *collyfetcher.Fetcher {
		return collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.Scraper.UserAgent,
			Timeout:   cfg.Scraper.RequestTimeout,
		})
	}

	var fetcher scrape.Fetcher
	switch cfg.Scraper.Fetcher {
	case config.FetcherHeadless:
		headlessFetcher := newHeadless()
		defer headlessFetcher.Close()
		fetcher = headlessFetcher
	case config.FetcherAuto:
		headlessFetcher := newHeadless()
		defer headlessFetcher.Close()
		fetcher = auto.New(
			newColly(),
			headlessFetcher,
			detector.NewHeuristic(0),
			logging.Component(logger, "fetcher"),
		)
	default:
		fetcher = newColly()
	}

	pipeline := scrape.NewPipeline(
		fetcher,
		extractor.New(logging.Component(logger, "extractor")),
		system.New(),
		uuid.New(),
		scrape.PipelineConfig{
			BaseURL:     cfg.Scraper.BaseURL,
			MaxRetries:  cfg.Scraper.MaxRetries,
			BackoffUnit: cfg.Scraper.BackoffUnit,
		},
		logging.Component(logger, "pipeline"),
	)

	apiServer := api.NewServer(pipeline, cfg, logging.Component(logger, "api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
