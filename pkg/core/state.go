package core

import "time"

// Store records pipeline run history.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(profile string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetLatestRun(profile string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	// Table run operations
	RecordTableRun(tr *TableRun) error
	UpdateTableRun(tr *TableRun) error
	GetTableRunsForRun(runID string) ([]*TableRun, error)
}

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run represents one execution of the full pipeline.
type Run struct {
	ID          string
	Profile     string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	Tables      []*TableRun
}

// TableRunStatus represents the status of an individual output table.
type TableRunStatus string

// Table run status constants.
const (
	TableRunStatusPending TableRunStatus = "pending"
	TableRunStatusRunning TableRunStatus = "running"
	TableRunStatusSuccess TableRunStatus = "success"
	TableRunStatusFailed  TableRunStatus = "failed"
	TableRunStatusSkipped TableRunStatus = "skipped"
)

// TableRun is the result of materializing one output table within a run.
type TableRun struct {
	ID     string
	RunID  string
	Table  string
	Status TableRunStatus
	Rows   int64
	// Dropped counts input events that produced no row (songplays only).
	Dropped     int64
	StartedAt   time.Time
	CompletedAt *time.Time
	ExecutionMS int64
	Error       string
}
