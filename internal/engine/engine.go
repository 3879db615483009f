// Package engine runs the songlake pipeline.
//
// An Engine owns the processing-engine connection, the storage backends and
// the run-history store. Run reads both feeds, derives every table, and
// writes them level by level following the stage graph, so the fact table is
// only built after the dimensions it joins against have been persisted.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/songlake/internal/state"
	"github.com/leapstack-labs/songlake/internal/storage"
	"github.com/leapstack-labs/songlake/pkg/adapter"
	"github.com/leapstack-labs/songlake/pkg/core"
)

// Engine orchestrates one or more pipeline runs.
type Engine struct {
	// Processing engine adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	logger   *slog.Logger
	store    core.Store
	backends *storage.Resolver

	profile  string
	songData string
	logData  string
	output   string
	options  core.PipelineOptions
}

// Config holds engine configuration.
type Config struct {
	// Profile labels runs in the history; it is the active data_location.
	Profile string
	// SongData is the catalog feed location.
	SongData string
	// LogData is the activity feed location.
	LogData string
	// OutputData is the root under which tables are written.
	OutputData string
	// Pipeline holds the transformation options.
	Pipeline core.PipelineOptions
	// AdapterConfig configures the processing engine.
	AdapterConfig adapter.Config
	// Storage configures the remote storage backends.
	Storage storage.Options
	// StatePath is the run-history database; ":memory:" keeps it in memory.
	StatePath string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine with a lazy processing-engine connection.
// The run-history store is opened and migrated immediately.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.SongData == "" || cfg.LogData == "" || cfg.OutputData == "" {
		return nil, fmt.Errorf("song, log and output locations are required")
	}

	logger.Debug("initializing engine",
		slog.String("profile", cfg.Profile),
		slog.String("output_data", cfg.OutputData))

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}

	dbConfig := cfg.AdapterConfig
	if dbConfig.Type == "" {
		dbConfig.Type = "duckdb"
	}

	return &Engine{
		dbConfig: dbConfig,
		logger:   logger,
		store:    store,
		backends: storage.NewResolver(cfg.Storage, logger),
		profile:  cfg.Profile,
		songData: cfg.SongData,
		logData:  cfg.LogData,
		output:   cfg.OutputData,
		options:  cfg.Pipeline,
	}, nil
}

// ensureDBConnected lazily connects to the processing engine.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	e.logger.Debug("connecting to engine", slog.String("adapter_type", e.dbConfig.Type))

	db, err := adapter.NewAdapter(e.dbConfig, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create engine adapter: %w", err)
	}
	if err := db.Connect(ctx, e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to engine: %w", err)
	}

	e.db = db
	e.dbConnected = true
	return nil
}

// Store returns the run-history store.
func (e *Engine) Store() core.Store {
	return e.store
}

// WithS3 routes s3:// locations through an existing backend.
func (e *Engine) WithS3(b *storage.S3Backend) *Engine {
	e.backends.WithS3(b)
	return e
}

// Close releases the engine connection, storage clients and the store.
func (e *Engine) Close() error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	var firstErr error
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			firstErr = err
		}
		e.db = nil
		e.dbConnected = false
	}
	if err := e.backends.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
