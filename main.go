package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cropprice-harvester/config"
	"cropprice-harvester/models"
	"cropprice-harvester/scraper/viwanda"
	"cropprice-harvester/services"
	"cropprice-harvester/storage"
	"cropprice-harvester/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("%v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *utils.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Crop price harvester starting ===")
	logger.Info("Config — listing: %s | store: %s | concurrency: %d | fetch timeout: %s",
		cfg.BaseURL, cfg.StoreDriver, cfg.MaxConcurrency, cfg.FetchTimeout)

	metrics := utils.NewMetrics()
	if cfg.MetricsAddr != "" {
		metrics.Serve(ctx, cfg.MetricsAddr, logger)
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Make sure the database is running: docker compose up -d")
		return err
	}
	defer store.Close()

	client := viwanda.NewHTTPClient(cfg.FetchTimeout)
	var links viwanda.LinkSource = viwanda.NewHTTPLinkSource(client)
	if cfg.ListingRenderer == config.RendererChrome {
		browser := viwanda.NewBrowserLinkSource(cfg.ChromeBin, cfg.FetchTimeout, logger)
		defer browser.Close()
		links = browser
	}

	fetcher := viwanda.NewFetcher(client, logger, metrics)
	filter := viwanda.NewLinkFilter(cfg.DocumentHost())
	parser := services.NewParser(logger)

	newStream := func(skip *utils.URLSet) services.DocumentStream {
		return viwanda.NewStream(viwanda.StreamConfig{
			Paginator:      viwanda.NewPaginator(cfg.BaseURL, cfg.StartPage, links, logger),
			Filter:         filter,
			Fetcher:        fetcher,
			Parser:         parser,
			MaxConcurrency: cfg.MaxConcurrency,
			RateLimitMs:    cfg.RateLimitMs,
			Logger:         logger,
			Metrics:        metrics,
		}, skip)
	}

	ingester := services.NewIngester(store, newStream, logger, metrics)
	report, err := ingester.Run(ctx)
	if err != nil {
		return fmt.Errorf("harvest failed after %d new bulletins: %w", report.DocumentsIngested, err)
	}
	logger.Info("Harvest complete — %d new bulletins, %d records", report.DocumentsIngested, report.RecordsWritten)

	records, err := store.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch records for insights: %w", err)
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(records), report)

	if cfg.CSVExportPath != "" {
		if err := exportCSV(cfg.CSVExportPath, records); err != nil {
			return err
		}
		logger.Info("Exported %d records to %s", len(records), cfg.CSVExportPath)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.PriceStore, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		logger.Info("Using SQLite store at %s", cfg.SQLitePath)
		return storage.NewSQLiteStore(ctx, cfg.SQLitePath)
	default:
		logger.Info("Using PostgreSQL store at %s:%s/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
		return storage.NewPostgresStore(ctx, cfg.DSN(), &utils.RetryConfig{
			MaxAttempts: cfg.DBConnectRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		})
	}
}

func exportCSV(path string, records []*models.PriceRecord) error {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.Write(records); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
