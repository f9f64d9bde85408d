package main

import (
	"context"
	"errors"
	stdlog "log"
	"os"
	"os/signal"

	"github.com/michaelkielt/etl-banks-project/src/config"
	"github.com/michaelkielt/etl-banks-project/src/logger"
	"github.com/michaelkielt/etl-banks-project/src/models"
	"github.com/michaelkielt/etl-banks-project/src/processors"
	"github.com/michaelkielt/etl-banks-project/src/services"
	"github.com/michaelkielt/etl-banks-project/src/sources"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}
	logger.InitLogger(cfg.LogLevel)

	logger.L.Info("Largest banks ETL starting...", "source", cfg.SourceURL, "table", cfg.TableName)

	source, err := sources.New(cfg.SourceURL, sources.Options{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		logger.L.Error("Failed to build table source", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	etl := services.NewETLService(
		cfg,
		source,
		processors.NewExchangeRateProcessor(cfg.RateCacheTTL),
		logger.NewProgressLog(cfg.ProgressLogPath),
		os.Stdout,
	)

	report, err := etl.Run(ctx)
	if err != nil {
		logger.L.Error("ETL run failed", "class", failureClass(err), "error", err)
		stop()
		os.Exit(1)
	}

	logger.L.Info("ETL run finished",
		"runID", report.RunID,
		"rows", report.RowCount,
		"skipped", report.SkippedRows,
		"csv", report.CSVPath,
		"database", report.DatabasePath,
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)
}

func failureClass(err error) string {
	switch {
	case errors.Is(err, models.ErrNetwork):
		return "network"
	case errors.Is(err, models.ErrParse):
		return "parse"
	case errors.Is(err, models.ErrConfig):
		return "config"
	case errors.Is(err, models.ErrStorage):
		return "storage"
	default:
		return "io"
	}
}
