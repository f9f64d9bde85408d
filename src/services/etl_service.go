// src/services/etl_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/michaelkielt/etl-banks-project/src/config"
	"github.com/michaelkielt/etl-banks-project/src/database"
	"github.com/michaelkielt/etl-banks-project/src/exporters"
	"github.com/michaelkielt/etl-banks-project/src/logger"
	"github.com/michaelkielt/etl-banks-project/src/parsers/banktable"
	"github.com/michaelkielt/etl-banks-project/src/processors"
	"github.com/michaelkielt/etl-banks-project/src/sources"
)

type etlServiceImpl struct {
	cfg       *config.AppConfig
	source    sources.TableSource
	processor processors.ExchangeRateProcessor
	progress  ProgressRecorder
	out       io.Writer
	now       func() time.Time
}

// NewETLService wires one pipeline run. Query output is printed to out.
func NewETLService(cfg *config.AppConfig, source sources.TableSource, processor processors.ExchangeRateProcessor, progress ProgressRecorder, out io.Writer) ETLService {
	if out == nil {
		out = io.Discard
	}
	return &etlServiceImpl{
		cfg:       cfg,
		source:    source,
		processor: processor,
		progress:  progress,
		out:       out,
		now:       time.Now,
	}
}

// Run executes Extract, Transform, Load(CSV), Load(DB) and the verification
// queries in order. The first error stops the run; the database handle is
// closed on every path once opened.
func (s *etlServiceImpl) Run(ctx context.Context) (report *RunReport, err error) {
	report = &RunReport{
		RunID:        uuid.NewString(),
		CSVPath:      s.cfg.OutputCSVPath,
		DatabasePath: s.cfg.DatabasePath,
		TableName:    s.cfg.TableName,
		StartedAt:    s.now(),
	}

	log := logger.FromContext(ctx).With("runID", report.RunID)
	ctx = logger.ToContext(ctx, log)

	if err := s.milestone(ctx, MsgPreliminaries); err != nil {
		return nil, err
	}

	extracted, err := banktable.Extract(ctx, s.source, s.cfg.TableAttribs, banktable.Options{StrictRows: s.cfg.StrictRows})
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	report.SkippedRows = extracted.Skipped
	log.Info("Extracted bank records", "records", len(extracted.Records), "skipped", extracted.Skipped)
	if err := s.milestone(ctx, MsgExtracted); err != nil {
		return nil, err
	}

	rateTable, err := s.processor.LoadRates(s.cfg.ExchangeRatePath)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	result, err := s.processor.Transform(extracted, rateTable)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	report.RowCount = result.Len()
	if err := s.milestone(ctx, MsgTransformed); err != nil {
		return nil, err
	}

	if err := exporters.WriteCSV(result, s.cfg.OutputCSVPath); err != nil {
		return nil, fmt.Errorf("load csv: %w", err)
	}
	if err := s.milestone(ctx, MsgCSVSaved); err != nil {
		return nil, err
	}

	db, err := database.Open(s.cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("load database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("Failed to close database", "path", s.cfg.DatabasePath, "error", cerr)
			if err == nil {
				report, err = nil, fmt.Errorf("close database: %w", cerr)
			}
		}
	}()
	if err := s.milestone(ctx, MsgDBConnected); err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("load database: %w", err)
	}
	if err := database.ReplaceTable(ctx, db, s.cfg.TableName, result); err != nil {
		return nil, fmt.Errorf("load database: %w", err)
	}
	if err := s.milestone(ctx, MsgDBLoaded); err != nil {
		return nil, err
	}

	for _, statement := range s.cfg.VerifyQueries {
		qr, err := database.Query(ctx, db, statement)
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		if err := qr.Print(s.out); err != nil {
			return nil, fmt.Errorf("verify: print %q: %w", statement, err)
		}
		report.Queries = append(report.Queries, qr)
	}

	report.FinishedAt = s.now()
	if err := database.RecordRun(ctx, db, database.RunRecord{
		RunID:       report.RunID,
		SourceURL:   s.cfg.SourceURL,
		TableName:   s.cfg.TableName,
		CSVPath:     s.cfg.OutputCSVPath,
		RowCount:    report.RowCount,
		SkippedRows: report.SkippedRows,
		StartedAt:   report.StartedAt,
		FinishedAt:  report.FinishedAt,
	}); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	if err := s.milestone(ctx, MsgComplete); err != nil {
		return nil, err
	}
	return report, nil
}

// milestone records message in the progress log and on the run's logger.
func (s *etlServiceImpl) milestone(ctx context.Context, message string) error {
	if s.progress != nil {
		if err := s.progress.Log(message); err != nil {
			return fmt.Errorf("progress log: %w", err)
		}
	}
	logger.FromContext(ctx).Info(message, "milestone", true)
	return nil
}
