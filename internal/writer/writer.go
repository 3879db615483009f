// Package writer persists star-schema tables as parquet under the output root.
//
// A write stages rows in an engine table through the bulk-append path, clears
// the target location, then copies the staged rows out in key order. Partitioned
// tables are laid out as hive-style key=value directories.
package writer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/songlake/internal/storage"
	"github.com/leapstack-labs/songlake/pkg/adapter"
	"github.com/leapstack-labs/songlake/pkg/core"
)

// unpartitionedFile is the single file written for unpartitioned tables.
const unpartitionedFile = "data_0.parquet"

// BackendResolver returns the storage backend for a location.
type BackendResolver interface {
	For(ctx context.Context, location string) (storage.Backend, error)
}

// Result describes one completed table write.
type Result struct {
	Table    string
	Location string
	Rows     int
	Files    int
}

// Writer writes tables under a fixed output root.
type Writer struct {
	adp      adapter.Adapter
	backends BackendResolver
	root     string
	logger   *slog.Logger
}

// New creates a writer. A nil logger discards output.
func New(adp adapter.Adapter, backends BackendResolver, outputRoot string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Writer{adp: adp, backends: backends, root: outputRoot, logger: logger}
}

// Location returns where table is written.
func (w *Writer) Location(table string) string {
	return storage.Join(w.root, table)
}

// Write fully replaces the table described by spec with rows.
// rows must produce values in spec.Columns order.
func (w *Writer) Write(ctx context.Context, spec core.TableSpec, rows []core.Row) (*Result, error) {
	location := w.Location(spec.Name)
	log := w.logger.With(slog.String("table", spec.Name), slog.String("location", location))

	backend, err := w.backends.For(ctx, location)
	if err != nil {
		return nil, err
	}

	staging := "stg_" + spec.Name
	if err := w.adp.BulkLoad(ctx, staging, spec.Columns, rows); err != nil {
		return nil, fmt.Errorf("failed to stage %s: %w", spec.Name, err)
	}
	defer func() {
		if err := w.adp.Exec(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+adapter.QuoteIdent(staging)); err != nil {
			log.Warn("failed to drop staging table", slog.String("error", err.Error()))
		}
	}()

	if err := backend.Reset(ctx, location); err != nil {
		return nil, err
	}

	// A partitioned copy of zero rows creates no directories at all; the reset
	// location is left empty.
	if len(rows) > 0 || !spec.Partitioned() {
		dest := location
		if !spec.Partitioned() {
			dest = storage.Join(location, unpartitionedFile)
		}
		if err := w.adp.CopyTo(ctx, selectSQL(staging, spec), dest, adapter.CopyOptions{PartitionBy: spec.PartitionBy}); err != nil {
			return nil, w.classify(location, err)
		}
	}

	files, err := backend.List(ctx, location)
	if err != nil {
		return nil, err
	}

	log.Info("table written", slog.Int("rows", len(rows)), slog.Int("files", len(files)))
	return &Result{Table: spec.Name, Location: location, Rows: len(rows), Files: len(files)}, nil
}

func (w *Writer) classify(location string, err error) error {
	if kind, _ := w.adp.ClassifyError(err); kind == adapter.ErrorStorage {
		return &core.StorageError{Location: location, Op: "write", Err: err}
	}
	return fmt.Errorf("failed to write %s: %w", location, err)
}

func selectSQL(staging string, spec core.TableSpec) string {
	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = adapter.QuoteIdent(c.Name)
	}
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), adapter.QuoteIdent(staging))
	if len(spec.OrderBy) > 0 {
		order := make([]string, len(spec.OrderBy))
		for i, c := range spec.OrderBy {
			order[i] = adapter.QuoteIdent(c)
		}
		q += " ORDER BY " + strings.Join(order, ", ")
	}
	return q
}
