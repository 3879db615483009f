package state

import (
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/songlake/pkg/core"
)

// RecordTableRun inserts a table run. ID and StartedAt are filled in when empty.
func (s *SQLiteStore) RecordTableRun(tr *core.TableRun) error {
	if s.db == nil {
		return errNotOpened
	}
	if tr.ID == "" {
		tr.ID = generateID()
	}
	if tr.StartedAt.IsZero() {
		tr.StartedAt = nowUTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO table_runs
		   (id, run_id, table_name, status, row_count, dropped, started_at, completed_at, execution_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.RunID, tr.Table, string(tr.Status), tr.Rows, tr.Dropped,
		toMillis(tr.StartedAt), nullMillis(tr.CompletedAt), tr.ExecutionMS, nullString(tr.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to record table run: %w", err)
	}
	return nil
}

// UpdateTableRun stores the outcome fields of an existing table run.
func (s *SQLiteStore) UpdateTableRun(tr *core.TableRun) error {
	if s.db == nil {
		return errNotOpened
	}

	result, err := s.db.Exec(
		`UPDATE table_runs
		    SET status = ?, row_count = ?, dropped = ?, completed_at = ?, execution_ms = ?, error = ?
		  WHERE id = ?`,
		string(tr.Status), tr.Rows, tr.Dropped, nullMillis(tr.CompletedAt), tr.ExecutionMS,
		nullString(tr.Error), tr.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update table run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("table run not found: %s", tr.ID)
	}
	return nil
}

// GetTableRunsForRun returns the table runs of a run ordered by start time.
func (s *SQLiteStore) GetTableRunsForRun(runID string) ([]*core.TableRun, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, table_name, status, row_count, dropped, started_at, completed_at, execution_ms, error
		   FROM table_runs WHERE run_id = ? ORDER BY started_at, table_name`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get table runs: %w", err)
	}
	defer rows.Close()

	var out []*core.TableRun
	for rows.Next() {
		var (
			tr          core.TableRun
			status      string
			startedAt   int64
			completedAt sql.NullInt64
			errMsg      sql.NullString
		)
		if err := rows.Scan(&tr.ID, &tr.RunID, &tr.Table, &status, &tr.Rows, &tr.Dropped,
			&startedAt, &completedAt, &tr.ExecutionMS, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan table run: %w", err)
		}
		tr.Status = core.TableRunStatus(status)
		tr.StartedAt = fromMillis(startedAt)
		if completedAt.Valid {
			t := fromMillis(completedAt.Int64)
			tr.CompletedAt = &t
		}
		tr.Error = errMsg.String
		out = append(out, &tr)
	}
	return out, rows.Err()
}
