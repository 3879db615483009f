package engine

// run.go - Execution orchestration for one pipeline run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/songlake/internal/dag"
	"github.com/leapstack-labs/songlake/internal/reader"
	"github.com/leapstack-labs/songlake/internal/transform"
	"github.com/leapstack-labs/songlake/internal/writer"
	"github.com/leapstack-labs/songlake/pkg/core"
)

// derived holds everything computed from the raw feeds before any write.
type derived struct {
	catalog  *transform.CatalogResult
	activity *transform.ActivityResult
	time     []core.TimeDimension
}

// execution tracks per-table progress within one run.
type execution struct {
	runID string

	mu      sync.Mutex
	started map[string]*core.TableRun
	written map[string]int
}

func (x *execution) rowsWritten(table string) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.written[table]
}

// Run executes the full pipeline once and records it in the run history.
// The returned run includes its table runs, also when err is non-nil.
func (e *Engine) Run(ctx context.Context) (*core.Run, error) {
	e.logger.Info("starting run",
		slog.String("profile", e.profile),
		slog.String("song_data", e.songData),
		slog.String("log_data", e.logData),
		slog.String("output_data", e.output))

	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	run, err := e.store.CreateRun(e.profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	e.logger.Debug("created run", slog.String("run_id", run.ID))

	x := &execution{
		runID:   run.ID,
		started: make(map[string]*core.TableRun),
		written: make(map[string]int),
	}
	runErr := e.execute(ctx, x)

	status := core.RunStatusCompleted
	errMsg := ""
	switch {
	case runErr == nil:
		e.logger.Info("run completed", slog.String("run_id", run.ID))
	case ctx.Err() != nil:
		status, errMsg = core.RunStatusCancelled, runErr.Error()
		e.logger.Warn("run cancelled", slog.String("run_id", run.ID), slog.String("error", errMsg))
	default:
		status, errMsg = core.RunStatusFailed, runErr.Error()
		e.logger.Error("run failed", slog.String("run_id", run.ID), slog.String("error", errMsg))
	}
	if err := e.store.CompleteRun(run.ID, status, errMsg); err != nil {
		e.logger.Warn("failed to complete run", slog.String("run_id", run.ID), slog.String("error", err.Error()))
	}

	final, err := e.store.GetRun(run.ID)
	if err != nil {
		return run, errors.Join(runErr, err)
	}
	return final, runErr
}

// execute derives all tables and writes them level by level.
func (e *Engine) execute(ctx context.Context, x *execution) error {
	rd := reader.New(e.db, e.logger)
	wr := writer.New(e.db, e.backends, e.output, e.logger)

	d, err := e.derive(ctx, rd)
	if err != nil {
		e.skipRemaining(x, nil, "run aborted: "+err.Error())
		return err
	}

	return e.schedule(ctx, e.stages(d, rd, x), wr, x)
}

// schedule writes the stages level by level. Any table that never starts is
// recorded as skipped.
func (e *Engine) schedule(ctx context.Context, stages map[string]*stage, wr *writer.Writer, x *execution) error {
	g, err := buildGraph(stages)
	if err != nil {
		e.skipRemaining(x, nil, "run aborted: "+err.Error())
		return err
	}
	levels, err := g.GetExecutionLevels()
	if err != nil {
		e.skipRemaining(x, g, "run aborted: "+err.Error())
		return err
	}

	for i, level := range levels {
		e.logger.Debug("executing level", slog.Int("level", i), slog.Any("tables", level))
		if err := e.runLevel(ctx, g, level, wr, x); err != nil {
			e.skipRemaining(x, g, "run aborted")
			return err
		}
	}
	return nil
}

// derive reads both feeds concurrently and runs every transformer.
func (e *Engine) derive(ctx context.Context, rd *reader.Reader) (*derived, error) {
	partitions := e.options.Partitions
	if partitions <= 0 {
		partitions = transform.DefaultPartitions()
	}

	d := &derived{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := rd.ReadCatalog(gctx, e.songData)
		if err != nil {
			return err
		}
		d.catalog, err = transform.NewCatalogTransformer(partitions).Transform(gctx, records)
		if err != nil {
			return err
		}
		e.logger.Info("catalog transformed",
			slog.Int("records", len(records)),
			slog.Int("songs", len(d.catalog.Songs)),
			slog.Int("artists", len(d.catalog.Artists)))
		return nil
	})

	g.Go(func() error {
		records, err := rd.ReadActivity(gctx, e.logData)
		if err != nil {
			return err
		}
		d.activity, err = transform.NewActivityTransformer(e.options.UserSource, partitions).Transform(gctx, records)
		if err != nil {
			return err
		}
		d.time, err = transform.NewTimeDeriver(partitions).Derive(gctx, d.activity.Events)
		if err != nil {
			return err
		}
		e.logger.Info("activity transformed",
			slog.Int("records", len(records)),
			slog.Int("plays", len(d.activity.Events)),
			slog.Int("discarded", d.activity.Discarded),
			slog.Int("users", len(d.activity.Users)),
			slog.Int("time", len(d.time)))
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// stages maps every output table to the body that produces its rows.
func (e *Engine) stages(d *derived, rd *reader.Reader, x *execution) map[string]*stage {
	return map[string]*stage{
		core.TableSongs:     {spec: core.SongsTable, build: rowsOf(d.catalog.Songs)},
		core.TableArtists:   {spec: core.ArtistsTable, build: rowsOf(d.catalog.Artists)},
		core.TableUsers:     {spec: core.UsersTable, build: rowsOf(d.activity.Users)},
		core.TableTime:      {spec: core.TimeTable, build: rowsOf(d.time)},
		core.TableSongplays: {spec: core.SongplaysTable, build: e.songplays(d.activity.Events, rd, x)},
	}
}

// songplays builds the fact rows from the persisted dimensions.
// A dimension written with zero rows leaves no files behind, so it is not re-read.
func (e *Engine) songplays(events []core.PlayEvent, rd *reader.Reader, x *execution) func(context.Context) ([]core.Row, int, error) {
	return func(ctx context.Context) ([]core.Row, int, error) {
		var (
			songs   []core.Song
			artists []core.Artist
			err     error
		)
		if x.rowsWritten(core.TableSongs) > 0 {
			if songs, err = rd.ReadSongs(ctx, e.output); err != nil {
				return nil, 0, err
			}
		}
		if x.rowsWritten(core.TableArtists) > 0 {
			if artists, err = rd.ReadArtists(ctx, e.output); err != nil {
				return nil, 0, err
			}
		}

		predicate, err := transform.PredicateByName(e.options.JoinPredicate)
		if err != nil {
			return nil, 0, err
		}
		partitions := e.options.Partitions
		if partitions <= 0 {
			partitions = transform.DefaultPartitions()
		}

		res, err := transform.NewFactBuilder(predicate, partitions).Build(ctx, events, songs, artists)
		if err != nil {
			return nil, 0, err
		}

		if res.Dropped() > 0 || res.Ambiguous > 0 {
			e.logger.Warn("songplays join mismatches",
				slog.String("predicate", predicate.Name()),
				slog.Int("events", res.Events),
				slog.Int("no_song", res.NoSong),
				slog.Int("no_artist", res.NoArtist),
				slog.Int("ambiguous", res.Ambiguous),
				slog.Int("songplays", len(res.Songplays)))
		}
		return core.AsRows(res.Songplays), res.Dropped(), nil
	}
}

// runLevel runs every stage of one level concurrently. The first failure
// cancels the rest of the level.
func (e *Engine) runLevel(ctx context.Context, g *dag.Graph[*stage], level []string, wr *writer.Writer, x *execution) error {
	eg, gctx := errgroup.WithContext(ctx)
	for _, id := range level {
		node, ok := g.GetNode(id)
		if !ok {
			return fmt.Errorf("unknown stage %s", id)
		}
		eg.Go(func() error {
			return e.runStage(gctx, node.Data, wr, x)
		})
	}
	return eg.Wait()
}

// runStage builds and writes one table, recording its table run.
func (e *Engine) runStage(ctx context.Context, s *stage, wr *writer.Writer, x *execution) error {
	name := s.spec.Name
	log := e.logger.With(slog.String("table", name))

	tr := &core.TableRun{
		RunID:     x.runID,
		Table:     name,
		Status:    core.TableRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	x.mu.Lock()
	x.started[name] = tr
	x.mu.Unlock()

	if err := e.store.RecordTableRun(tr); err != nil {
		log.Warn("failed to record table run", slog.String("error", err.Error()))
	}

	start := time.Now()
	rows, dropped, err := s.build(ctx)
	var res *writer.Result
	if err == nil {
		res, err = wr.Write(ctx, s.spec, rows)
	}

	done := time.Now().UTC()
	tr.CompletedAt = &done
	tr.ExecutionMS = time.Since(start).Milliseconds()
	tr.Dropped = int64(dropped)

	if err != nil {
		tr.Status = core.TableRunStatusFailed
		tr.Error = err.Error()
		e.updateTableRun(tr)
		log.Error("table failed", slog.String("error", err.Error()))
		return fmt.Errorf("table %s: %w", name, err)
	}

	tr.Status = core.TableRunStatusSuccess
	tr.Rows = int64(res.Rows)
	e.updateTableRun(tr)

	x.mu.Lock()
	x.written[name] = res.Rows
	x.mu.Unlock()

	log.Info("table written",
		slog.Int("rows", res.Rows),
		slog.Int("files", res.Files),
		slog.Int("dropped", dropped),
		slog.Int64("execution_ms", tr.ExecutionMS))
	return nil
}

func (e *Engine) updateTableRun(tr *core.TableRun) {
	if err := e.store.UpdateTableRun(tr); err != nil {
		e.logger.Warn("failed to update table run",
			slog.String("table", tr.Table), slog.String("error", err.Error()))
	}
}

// skipRemaining records every table that never started as skipped. With a
// graph, tables downstream of a failed table name it as the reason.
func (e *Engine) skipRemaining(x *execution, g *dag.Graph[*stage], reason string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	var failed []string
	for _, spec := range core.Tables {
		if tr, ok := x.started[spec.Name]; ok && tr.Status == core.TableRunStatusFailed {
			failed = append(failed, spec.Name)
		}
	}
	downstream := map[string]bool{}
	if g != nil {
		for _, id := range g.GetAffectedNodes(failed) {
			downstream[id] = true
		}
	}

	for _, spec := range core.Tables {
		if _, ok := x.started[spec.Name]; ok {
			continue
		}
		msg := reason
		if downstream[spec.Name] {
			msg = "upstream failed: " + strings.Join(failed, ", ")
		}
		tr := &core.TableRun{
			RunID:  x.runID,
			Table:  spec.Name,
			Status: core.TableRunStatusSkipped,
			Error:  msg,
		}
		if err := e.store.RecordTableRun(tr); err != nil {
			e.logger.Warn("failed to record skipped table",
				slog.String("table", spec.Name), slog.String("error", err.Error()))
		}
		x.started[spec.Name] = tr
	}
}
