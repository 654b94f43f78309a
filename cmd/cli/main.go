// Command cli runs both export phases headless and writes the two xlsx
// files to disk, for scripted or cron-driven collection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"difcregistry/adapters/api"
	appsvc "difcregistry/app"
	"difcregistry/domain/registry"
	"difcregistry/internal"
	"difcregistry/internal/config"
	"difcregistry/internal/report"
	"difcregistry/ports"
)

const (
	step1FileName = "Step1_DIFC_Companies.xlsx"
	step2FileName = "Step2_DIFC_Details.xlsx"
)

func main() {
	count := flag.Int("count", 200, "number of raw records to fetch (10-5000)")
	companyType := flag.String("type", registry.TypeAll, "company type filter")
	outDir := flag.String("out", ".", "directory for the exported xlsx files")
	workers := flag.Int("workers", 0, "detail fetch workers (0 = use DETAIL_WORKERS/default)")
	flag.Parse()

	logger := internal.NewDefaultLogger()
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using system environment variables")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration: %v", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Fetch.DetailWorkers = *workers
	}
	if *count < cfg.Fetch.MinRecords || *count > cfg.Fetch.MaxRecords {
		logger.Error("count must be between %d and %d", cfg.Fetch.MinRecords, cfg.Fetch.MaxRecords)
		os.Exit(1)
	}

	client := api.NewClient(api.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	})
	lister := appsvc.NewListerService(client, appsvc.ListerConfig{
		PageSize:     cfg.Fetch.PageSize,
		RequestDelay: cfg.Fetch.RequestDelay,
	})
	detailer := appsvc.NewDetailService(client, appsvc.DetailConfig{
		RequestDelay: cfg.Fetch.RequestDelay,
		Workers:      cfg.Fetch.DetailWorkers,
	})

	sink := ports.ProgressFuncs{
		OnProgress: func(fraction float64) {
			fmt.Fprintf(os.Stderr, "\rprogress: %3.0f%%", fraction*100)
		},
		OnStatus: func(message string) {
			fmt.Fprintln(os.Stderr)
			logger.Info("%s", message)
		},
	}

	ctx := context.Background()
	listResult, err := lister.Run(ctx, *count, *companyType, sink)
	if err != nil {
		logger.Error("step 1 failed: %v", err)
		os.Exit(1)
	}

	step1Path := filepath.Join(*outDir, step1FileName)
	if err := os.WriteFile(step1Path, listResult.Workbook, 0o644); err != nil {
		logger.Error("failed to write %s: %v", step1Path, err)
		os.Exit(1)
	}
	logger.Info("wrote %s", step1Path)

	summary := report.Summarize(listResult.Flattened, len(listResult.Filtered))
	logger.Info("step 1: %d fetched, %d filtered, %.2f activities per company (mean)",
		summary.TotalFetched, summary.TotalFiltered, summary.ActivityMean)

	if len(listResult.Filtered) == 0 {
		logger.Info("no companies matched the selected category; skipping step 2")
		return
	}

	detailResult, err := detailer.Run(ctx, listResult.Filtered, sink)
	if err != nil {
		logger.Error("step 2 failed: %v", err)
		os.Exit(1)
	}

	step2Path := filepath.Join(*outDir, step2FileName)
	if err := os.WriteFile(step2Path, detailResult.Workbook, 0o644); err != nil {
		logger.Error("failed to write %s: %v", step2Path, err)
		os.Exit(1)
	}
	logger.Info("wrote %s (%d detailed, %d skipped)", step2Path, detailResult.Fetched, detailResult.Skipped)
}
