package core

import (
	"context"
	"database/sql"
)

// Adapter defines the interface that the processing-engine handle implements.
type Adapter interface {
	// Connect establishes a connection to the engine.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the connection.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)
}

// AdapterConfig holds configuration for connecting to the processing engine.
type AdapterConfig struct {
	Type string
	// Path is the database file; empty means in-memory.
	Path   string
	Params map[string]any
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
