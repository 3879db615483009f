// Package reader loads the raw feeds and the persisted dimensions through the
// processing engine and scans them into typed records.
package reader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/songlake/internal/storage"
	"github.com/leapstack-labs/songlake/pkg/adapter"
	"github.com/leapstack-labs/songlake/pkg/core"
)

// Record sources, as reported in SchemaError.Source.
const (
	SourceCatalog  = "catalog"
	SourceActivity = "activity"
	SourceSongs    = core.TableSongs
	SourceArtists  = core.TableArtists
)

const catalogQuery = `SELECT
	CAST(song_id AS VARCHAR),
	CAST(title AS VARCHAR),
	CAST(artist_id AS VARCHAR),
	CAST("year" AS BIGINT),
	CAST(duration AS DOUBLE),
	CAST(artist_name AS VARCHAR),
	CAST(artist_location AS VARCHAR),
	CAST(artist_latitude AS DOUBLE),
	CAST(artist_longitude AS DOUBLE)
FROM read_json_auto(%s, format = 'newline_delimited', union_by_name = true)`

const activityQuery = `SELECT
	CAST(page AS VARCHAR),
	CAST(userId AS VARCHAR),
	CAST(firstName AS VARCHAR),
	CAST(lastName AS VARCHAR),
	CAST(gender AS VARCHAR),
	CAST("level" AS VARCHAR),
	CAST(ts AS BIGINT),
	CAST(song AS VARCHAR),
	CAST(artist AS VARCHAR),
	CAST(sessionId AS BIGINT),
	CAST(location AS VARCHAR),
	CAST(userAgent AS VARCHAR)
FROM read_json_auto(%s, format = 'newline_delimited', union_by_name = true)`

const songsQuery = `SELECT
	CAST(song_id AS VARCHAR),
	CAST(title AS VARCHAR),
	CAST(artist_id AS VARCHAR),
	CAST("year" AS BIGINT),
	CAST(duration AS DOUBLE)
FROM read_parquet(%s, hive_partitioning = true)`

const artistsQuery = `SELECT
	CAST(artist_id AS VARCHAR),
	CAST(name AS VARCHAR),
	CAST(location AS VARCHAR),
	CAST(latitude AS DOUBLE),
	CAST(longitude AS DOUBLE)
FROM read_parquet(%s)`

// Reader runs read queries on the processing engine.
type Reader struct {
	adp    adapter.Adapter
	logger *slog.Logger
}

// New creates a reader over an already connected adapter. A nil logger discards output.
func New(adp adapter.Adapter, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reader{adp: adp, logger: logger}
}

// InputGlob returns the file pattern for an input location. Locations that
// already contain a glob are used as-is; anything else is treated as a
// directory tree of .json files.
func InputGlob(location string) string {
	if strings.ContainsAny(location, "*?[") {
		return location
	}
	return storage.Join(location, "**", "*.json")
}

// ReadCatalog reads catalog records from location.
func (r *Reader) ReadCatalog(ctx context.Context, location string) ([]core.CatalogRecord, error) {
	glob := InputGlob(location)
	var out []core.CatalogRecord

	err := r.scan(ctx, SourceCatalog, glob, fmt.Sprintf(catalogQuery, adapter.QuoteString(glob)), func(row int, rows *core.Rows) error {
		var (
			songID, title, artistID, artistName sql.NullString
			year                                sql.NullInt64
			duration                            sql.NullFloat64
			rec                                 core.CatalogRecord
		)
		if err := rows.Scan(&songID, &title, &artistID, &year, &duration, &artistName,
			&rec.ArtistLocation, &rec.ArtistLatitude, &rec.ArtistLongitude); err != nil {
			return &core.SchemaError{Source: SourceCatalog, Row: row, Err: err}
		}
		if err := required(SourceCatalog, row,
			field{"song_id", songID.Valid}, field{"title", title.Valid}, field{"artist_id", artistID.Valid},
			field{"year", year.Valid}, field{"duration", duration.Valid}, field{"artist_name", artistName.Valid},
		); err != nil {
			return err
		}
		rec.SongID, rec.Title, rec.ArtistID = songID.String, title.String, artistID.String
		rec.Year, rec.Duration, rec.ArtistName = year.Int64, duration.Float64, artistName.String
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("read catalog records", slog.String("location", glob), slog.Int("records", len(out)))
	return out, nil
}

// ReadActivity reads activity records from location.
func (r *Reader) ReadActivity(ctx context.Context, location string) ([]core.ActivityRecord, error) {
	glob := InputGlob(location)
	var out []core.ActivityRecord

	err := r.scan(ctx, SourceActivity, glob, fmt.Sprintf(activityQuery, adapter.QuoteString(glob)), func(row int, rows *core.Rows) error {
		var (
			page, userID, level sql.NullString
			ts, sessionID       sql.NullInt64
			rec                 core.ActivityRecord
		)
		if err := rows.Scan(&page, &userID, &rec.FirstName, &rec.LastName, &rec.Gender, &level,
			&ts, &rec.Song, &rec.Artist, &sessionID, &rec.Location, &rec.UserAgent); err != nil {
			return &core.SchemaError{Source: SourceActivity, Row: row, Err: err}
		}
		if err := required(SourceActivity, row, field{"page", page.Valid}, field{"ts", ts.Valid}); err != nil {
			return err
		}
		rec.Page, rec.UserID, rec.Level = page.String, userID.String, level.String
		rec.TS, rec.SessionID = ts.Int64, sessionID.Int64
		if rec.IsPlay() {
			if err := required(SourceActivity, row, field{"sessionId", sessionID.Valid}); err != nil {
				return err
			}
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("read activity records", slog.String("location", glob), slog.Int("records", len(out)))
	return out, nil
}

// ReadSongs re-reads the persisted songs table under outputRoot. Hive
// partition directories restore year and artist_id.
func (r *Reader) ReadSongs(ctx context.Context, outputRoot string) ([]core.Song, error) {
	glob := storage.Join(outputRoot, core.TableSongs, "**", "*.parquet")
	var out []core.Song

	err := r.scan(ctx, SourceSongs, glob, fmt.Sprintf(songsQuery, adapter.QuoteString(glob)), func(row int, rows *core.Rows) error {
		var s core.Song
		if err := rows.Scan(&s.SongID, &s.Title, &s.ArtistID, &s.Year, &s.Duration); err != nil {
			return &core.SchemaError{Source: SourceSongs, Row: row, Err: err}
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadArtists re-reads the persisted artists table under outputRoot.
func (r *Reader) ReadArtists(ctx context.Context, outputRoot string) ([]core.Artist, error) {
	glob := storage.Join(outputRoot, core.TableArtists, "*.parquet")
	var out []core.Artist

	err := r.scan(ctx, SourceArtists, glob, fmt.Sprintf(artistsQuery, adapter.QuoteString(glob)), func(row int, rows *core.Rows) error {
		var a core.Artist
		if err := rows.Scan(&a.ArtistID, &a.Name, &a.Location, &a.Latitude, &a.Longitude); err != nil {
			return &core.SchemaError{Source: SourceArtists, Row: row, Err: err}
		}
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// scan runs query and calls fn for every row with its 1-based row number.
func (r *Reader) scan(ctx context.Context, source, location, query string, fn func(row int, rows *core.Rows) error) error {
	r.logger.Debug("reading", slog.String("source", source), slog.String("location", location))

	rows, err := r.adp.Query(ctx, query)
	if err != nil {
		return r.classify(source, location, err)
	}
	defer func() { _ = rows.Close() }()

	row := 0
	for rows.Next() {
		row++
		if err := fn(row, rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return r.classify(source, location, err)
	}
	return nil
}

func (r *Reader) classify(source, location string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	kind, fieldName := r.adp.ClassifyError(err)
	switch kind {
	case adapter.ErrorSchema:
		return &core.SchemaError{Source: source, Field: fieldName, Err: err}
	case adapter.ErrorStorage:
		return &core.StorageError{Location: location, Op: "read", Err: err}
	default:
		return fmt.Errorf("failed to read %s records from %s: %w", source, location, err)
	}
}

type field struct {
	name    string
	present bool
}

func required(source string, row int, fields ...field) error {
	for _, f := range fields {
		if !f.present {
			return &core.SchemaError{Source: source, Field: f.name, Row: row, Err: errors.New("required field is null")}
		}
	}
	return nil
}
