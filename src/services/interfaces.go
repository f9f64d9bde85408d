// src/services/interfaces.go
package services

import (
	"context"
	"time"

	"github.com/michaelkielt/etl-banks-project/src/database"
)

// RunReport summarises a completed pipeline run.
type RunReport struct {
	RunID        string
	RowCount     int
	SkippedRows  int
	CSVPath      string
	DatabasePath string
	TableName    string
	Queries      []*database.QueryResult
	StartedAt    time.Time
	FinishedAt   time.Time
}

// ETLService runs the extract, transform and load stages once.
type ETLService interface {
	Run(ctx context.Context) (*RunReport, error)
}

// ProgressRecorder receives one message per completed milestone.
type ProgressRecorder interface {
	Log(message string) error
}

// Milestone messages written to the progress log, in run order.
const (
	MsgPreliminaries = "Preliminaries complete. Initiating ETL process"
	MsgExtracted     = "Data extraction complete. Initiating Transformation process"
	MsgTransformed   = "Data transformation complete. Initiating loading process"
	MsgCSVSaved      = "Data saved to CSV file"
	MsgDBConnected   = "SQL Connection initiated."
	MsgDBLoaded      = "Data loaded to Database as table. Running the query"
	MsgComplete      = "Process Complete."
)
