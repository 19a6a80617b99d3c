package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"classicist-scraper/exporter"
	"classicist-scraper/extractor"
	"classicist-scraper/internal/types"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Parse command line flags
	var (
		urlFlag      = flag.String("url", "", "Directory listing URL (default: classicist.org membership directory)")
		hostsFlag    = flag.String("hosts", "", "Comma-separated host allow-list (default: classicist.org)")
		detailsFlag  = flag.String("details", "", "Summary CSV/JSON file; switches to detail scraping mode")
		startFrom    = flag.Int("start-from", 0, "Detail mode: start processing from this record index")
		limitFlag    = flag.Int("limit", 10, "Detail mode: maximum number of records to process (0 = all)")
		outputFlag   = flag.String("output", "", "Output file path (default: timestamped file in output dir)")
		outputDir    = flag.String("output-dir", "outputs", "Output directory for exported data")
		formatFlag   = flag.String("format", "json", "Output format (json, csv, excel)")
		requestDelay = flag.Duration("delay", 2*time.Second, "Minimum delay between requests")
		maxRetries   = flag.Int("retries", 3, "Maximum retry attempts per page")
		timeout      = flag.Duration("timeout", 30*time.Second, "Per-page timeout")
		httpOnly     = flag.Bool("http-only", false, "Use HTTP requests only (disable headless browser)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	// Setup logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	// Set log level from LOG_LEVEL env if present
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	// Create configuration
	config := types.DefaultConfig()
	config.RequestDelay = *requestDelay
	config.MaxRetries = *maxRetries
	config.Timeout = *timeout
	config.UseHeadlessBrowser = !*httpOnly
	if *urlFlag != "" {
		config.TargetURL = *urlFlag
	}
	if *hostsFlag != "" {
		hosts := strings.Split(*hostsFlag, ",")
		for i, h := range hosts {
			hosts[i] = strings.TrimSpace(h)
		}
		config.AllowedHosts = hosts
	}

	// Cancel between iterations on Ctrl-C; partial results are still exported
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exp, err := exporter.NewExporter(*outputDir, logger)
	if err != nil {
		logger.Fatalf("Failed to set up output directory: %v", err)
	}

	var run *types.ScrapeRun
	startTime := time.Now()

	if *detailsFlag != "" {
		summaries, err := exporter.LoadSummaries(*detailsFlag)
		if err != nil {
			logger.Fatalf("Failed to load summaries: %v", err)
		}
		if len(summaries) == 0 {
			logger.Fatal("No records with detail URLs found in input file")
		}

		det := extractor.NewDetailExtractor(config, logger)
		defer det.Close()
		run = det.Run(ctx, summaries, *startFrom, *limitFlag, *requestDelay)
	} else {
		dir := extractor.NewDirectoryExtractor(config, logger)
		defer dir.Close()

		run, err = dir.ExtractAll(ctx)
		if err != nil && len(run.Records) == 0 {
			logger.Fatalf("Scraping failed: %v", err)
		}
		if err != nil {
			logger.Warnf("Traversal ended early, exporting %d partial records: %v", len(run.Records), err)
		}
	}

	logger.Infof("Scraping completed in %v", time.Since(startTime))

	outputFile, err := exp.Export(run, *formatFlag, *outputFlag)
	if err != nil {
		logger.Fatalf("Failed to export results: %v", err)
	}

	logger.Infof("Records: %d, errors: %d", len(run.Records), len(run.Errors))
	if len(run.Errors) > 0 {
		for _, e := range run.Errors {
			logger.Warnf("Skipped %s: %s", e.DetailURL, e.Reason)
		}
	}
	logger.Infof("Results written to: %s", outputFile)
}
