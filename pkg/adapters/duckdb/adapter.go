package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/marcboeker/go-duckdb"

	"github.com/leapstack-labs/songlake/pkg/adapter"
	"github.com/leapstack-labs/songlake/pkg/core"
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
	params *Params
}

// New creates a new DuckDB adapter instance. A nil logger discards output.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger}}
}

// Connect opens DuckDB and applies extensions, settings and secrets from cfg.Params.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.params = params

	if err := a.setup(ctx); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}

	a.Logger.Debug("engine connected", slog.String("path", path),
		slog.Int("extensions", len(params.Extensions)),
		slog.Int("secrets", len(params.Secrets)))
	return nil
}

func (a *Adapter) setup(ctx context.Context) error {
	for _, ext := range a.params.Extensions {
		if err := a.Exec(ctx, "INSTALL "+ext); err != nil {
			return fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
		if err := a.Exec(ctx, "LOAD "+ext); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(a.params.Settings))
	for k := range a.params.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmt := fmt.Sprintf("SET %s = %s", k, adapter.QuoteString(a.params.Settings[k]))
		if err := a.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}

	for i, s := range a.params.Secrets {
		if err := a.Exec(ctx, buildCreateSecretSQL(s)); err != nil {
			return fmt.Errorf("failed to create secret %d (%s): %w", i, s.Type, err)
		}
	}
	return nil
}

// BulkLoad replaces table and fills it through the DuckDB appender.
func (a *Adapter) BulkLoad(ctx context.Context, table string, columns []core.Column, rows []core.Row) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if err := a.Exec(ctx, adapter.CreateTableSQL(table, columns)); err != nil {
		return err
	}

	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(raw any) error {
		driverConn, ok := raw.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection type %T", raw)
		}
		app, err := duckdb.NewAppenderFromConn(driverConn, "", table)
		if err != nil {
			return fmt.Errorf("failed to create appender for %s: %w", table, err)
		}
		for i, r := range rows {
			if err := ctx.Err(); err != nil {
				_ = app.Close()
				return err
			}
			if err := app.AppendRow(r.Values()...); err != nil {
				_ = app.Close()
				return fmt.Errorf("failed to append row %d to %s: %w", i+1, table, err)
			}
		}
		if err := app.Close(); err != nil {
			return fmt.Errorf("failed to flush appender for %s: %w", table, err)
		}
		return nil
	})
}

// CopyTo writes the result of query to dest as parquet.
func (a *Adapter) CopyTo(ctx context.Context, query, dest string, opts adapter.CopyOptions) error {
	options := []string{"FORMAT PARQUET"}
	if len(opts.PartitionBy) > 0 {
		cols := make([]string, len(opts.PartitionBy))
		for i, c := range opts.PartitionBy {
			cols[i] = adapter.QuoteIdent(c)
		}
		options = append(options,
			"PARTITION_BY ("+strings.Join(cols, ", ")+")",
			"OVERWRITE_OR_IGNORE true")
	}

	stmt := fmt.Sprintf("COPY (%s) TO %s (%s)", query, adapter.QuoteString(dest), strings.Join(options, ", "))
	a.Logger.Debug("copying query result", slog.String("dest", dest), slog.Any("partition_by", opts.PartitionBy))
	return a.Exec(ctx, stmt)
}

// ClassifyError implements adapter.Adapter.
func (a *Adapter) ClassifyError(err error) (adapter.ErrorKind, string) {
	return classifyError(err)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
