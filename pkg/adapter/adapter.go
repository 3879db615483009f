// Package adapter defines the processing-engine contract used by songlake's
// readers and writers.
//
// The contract extends core.Adapter with the two bulk paths the pipeline needs:
// loading typed rows into a staging table and copying a query result out to
// columnar files. Concrete adapters live in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import (
	"context"

	"github.com/leapstack-labs/songlake/pkg/core"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

// Rows is an alias for core.Rows.
type Rows = core.Rows

// ErrorKind classifies engine errors into the pipeline's error taxonomy.
type ErrorKind int

// Error kinds.
const (
	ErrorUnknown ErrorKind = iota
	// ErrorSchema is a missing column, a failed cast or malformed input.
	ErrorSchema
	// ErrorStorage is an unreadable source or unwritable destination.
	ErrorStorage
)

// CopyOptions controls how a query result is written out.
type CopyOptions struct {
	// PartitionBy writes hive-style key=value directories under dest.
	// When empty, dest names a single file.
	PartitionBy []string
}

// Adapter defines the interface that all processing-engine adapters implement.
type Adapter interface {
	core.Adapter

	// BulkLoad creates (or replaces) table with the given columns and appends rows.
	BulkLoad(ctx context.Context, table string, columns []core.Column, rows []core.Row) error

	// CopyTo writes the result of query to dest as parquet.
	CopyTo(ctx context.Context, query, dest string, opts CopyOptions) error

	// ClassifyError maps an engine error to a kind and, for schema errors,
	// the offending field when the engine names one.
	ClassifyError(err error) (kind ErrorKind, field string)
}
