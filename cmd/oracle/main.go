// Command oracle runs the hardware and cloud-GPU-rental price oracle: it
// polls a configured set of adapters, fuses their observations into a
// canonical price per asset, and serves the result over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hwp.dev/oracle/pkg/catalog"
	"hwp.dev/oracle/pkg/config"
	"hwp.dev/oracle/pkg/logging"
	"hwp.dev/oracle/pkg/metrics"
	"hwp.dev/oracle/pkg/server/aggregator"
	"hwp.dev/oracle/pkg/server/api"
	"hwp.dev/oracle/pkg/server/fetch"
	"hwp.dev/oracle/pkg/server/history"
	"hwp.dev/oracle/pkg/server/rental"
	"hwp.dev/oracle/pkg/server/scheduler"
	"hwp.dev/oracle/pkg/server/sources"
	apisources "hwp.dev/oracle/pkg/server/sources/api"
	"hwp.dev/oracle/pkg/server/sources/mock"
	rentalsource "hwp.dev/oracle/pkg/server/sources/rental"
	"hwp.dev/oracle/pkg/server/sources/scrape"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogOutput)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logging.SetGlobal(logger)

	metrics.Init()

	proxyPool, proxyErrs := fetch.NewProxyPool(cfg.ProxyList())
	for _, perr := range proxyErrs {
		logger.Warn("skipping invalid proxy URL", "error", perr.Error())
	}
	if !cfg.UseProxy {
		proxyPool = nil
	}

	scraperProxy := fetch.NewScraperAPIProxy(cfg.ScraperAPIKey, 25*time.Second)
	stealthClient := fetch.NewStealthClient(20*time.Second, proxyPool, logger).WithScraperAPI(scraperProxy)

	adapterSet := buildHardwareAdapters(cfg, stealthClient, logger)
	for _, src := range adapterSet {
		metrics.RecordAdapterHealth(src.Name(), src.IsAvailable())
	}

	agg := aggregator.NewWithPolicy(adapterSet, cfg.TWAPWindow(), cfg.PriceChangeThreshold, aggregator.PricePolicy(strings.ToLower(cfg.PricePolicy)), logger)

	rentalAdapter := rentalsource.New(stealthClient, logger)
	rentalAgg := rental.New(rentalAdapter, logger)

	var historyStore history.Store = history.NullStore{}
	if cfg.HistoryConfigured() {
		historyStore = history.NewHTTPStore(cfg.HistoryStoreURL, cfg.HistoryStoreKey, logger)
	}

	httpServer := api.NewServer(api.Config{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		CORSOrigins: cfg.CORSOriginList(),
		ScraperAPI:  scraperProxy.Available(),
		Aggregator:  agg,
		RentalAgg:   rentalAgg,
		RentalTTL:   60 * time.Second,
		History:     historyStore,
		RentalHist:  historyStore,
		Logger:      logger,
	})

	var wsServer *api.WebSocketServer
	if cfg.WSEnabled {
		wsServer = api.NewWebSocketServer(fmt.Sprintf(":%d", cfg.Port+1), logger)
		httpServer.SetWebSocketServer(wsServer)
	}

	sched := scheduler.New(
		cfg.UpdateInterval(),
		cfg.RentalInterval(),
		cfg.HistoryConfigured(),
		func(ctx context.Context) {
			updated := agg.UpdateAllPrices(ctx)
			httpServer.BroadcastPrices(updated)
		},
		func(ctx context.Context) {
			for _, rt := range catalog.RentalIDs() {
				if _, err := rentalAgg.UpdatePrice(ctx, rt); err != nil {
					logger.Warn("rental scheduler tick failed", "gpuType", rt, "error", err.Error())
				}
			}
		},
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go sched.Run(ctx)

	if wsServer != nil {
		go func() {
			if err := wsServer.Start(ctx); err != nil {
				logger.Error("websocket server error", "error", err.Error())
			}
		}()
	}

	if cfg.MetricsEnabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics server error", "error", err.Error())
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server exited", "error", err.Error())
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Stop(shutdownCtx)
}

// buildHardwareAdapters resolves the enabled adapter set per the mode's
// mode-selection precedence: SCRAPE_MODE wins, then DEMO_MODE, then API
// adapters filtered by availability, falling back to mock if none qualify.
func buildHardwareAdapters(cfg *config.Config, client *fetch.StealthClient, logger *logging.Logger) []sources.Source {
	switch cfg.SelectMode() {
	case config.ModeScrape:
		return []sources.Source{
			scrape.NewNeweggSource(client, logger),
			scrape.NewBestBuyScrapeSource(client, logger),
			scrape.NewAmazonScrapeSource(client, logger),
			scrape.NewBHPhotoSource(client, logger),
		}
	case config.ModeDemo:
		return []sources.Source{createMock(logger)}
	default:
		candidates := []sources.Source{
			apisources.NewEbaySource(cfg.EbayAppID, cfg.EbayCertID, logger),
			apisources.NewAmazonSource(cfg.AmazonAccessKey, cfg.AmazonSecretKey, cfg.AmazonPartnerTag, logger),
			apisources.NewBestBuySource(cfg.BestBuyAPIKey, logger),
		}
		available := make([]sources.Source, 0, len(candidates))
		for _, c := range candidates {
			if c.IsAvailable() {
				available = append(available, c)
			}
		}
		if len(available) == 0 {
			logger.Warn("no API adapters available, falling back to mock")
			return []sources.Source{createMock(logger)}
		}
		return available
	}
}

// createMock builds the mock adapter through the source registry rather
// than calling mock.New directly, exercising the same factory-lookup path
// a plugin adapter loaded only by name would use.
func createMock(logger *logging.Logger) sources.Source {
	src, err := sources.Create("mock")
	if err != nil {
		logger.Warn("mock adapter not registered, constructing directly", "error", err.Error())
		return mock.New(logger)
	}
	return src
}
