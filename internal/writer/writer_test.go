package writer

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/songlake/internal/storage"
	"github.com/leapstack-labs/songlake/internal/testutil"
	"github.com/leapstack-labs/songlake/pkg/adapters/duckdb"
	"github.com/leapstack-labs/songlake/pkg/core"
)

func newWriter(t *testing.T) (*Writer, *duckdb.Adapter, string) {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	adp := duckdb.New(logger)
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Close() })

	root := t.TempDir()
	return New(adp, storage.NewResolver(storage.Options{}, logger), root, logger), adp, root
}

func count(t *testing.T, adp *duckdb.Adapter, query string) int64 {
	t.Helper()
	rows, err := adp.Query(context.Background(), query)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	require.True(t, rows.Next())
	var n int64
	require.NoError(t, rows.Scan(&n))
	return n
}

func TestSelectSQL(t *testing.T) {
	got := selectSQL("stg_users", core.UsersTable)
	assert.Equal(t,
		`SELECT "user_id", "first_name", "last_name", "gender", "level" FROM "stg_users" ORDER BY "user_id", "level"`,
		got)
}

func TestWriter_WritePartitioned(t *testing.T) {
	ctx := context.Background()
	w, adp, root := newWriter(t)

	songs := []core.Song{
		{SongID: "SOB", Title: "Song B", ArtistID: "ARX", Year: 2001, Duration: 2},
		{SongID: "SOA", Title: "Song A", ArtistID: "ARX", Year: 2001, Duration: 1},
		{SongID: "SOC", Title: "Song C", ArtistID: "ARY", Year: 0, Duration: 3},
	}

	res, err := w.Write(ctx, core.SongsTable, core.AsRows(songs))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, filepath.Join(root, "songs"), res.Location)

	assert.DirExists(t, filepath.Join(root, "songs", "year=2001", "artist_id=ARX"))
	assert.DirExists(t, filepath.Join(root, "songs", "year=0", "artist_id=ARY"))

	glob := filepath.Join(root, "songs", "**", "*.parquet")
	assert.Equal(t, int64(3), count(t, adp, `SELECT COUNT(*) FROM read_parquet('`+glob+`', hive_partitioning = true)`))

	// The staging table is dropped after the copy.
	assert.Equal(t, int64(0), count(t, adp, `SELECT COUNT(*) FROM duckdb_tables() WHERE table_name = 'stg_songs'`))
}

func TestWriter_OverwritesPreviousRun(t *testing.T) {
	ctx := context.Background()
	w, _, root := newWriter(t)

	first := []core.TimeDimension{
		{StartTime: "2018-11-12 02:37:38.796", Hour: 2, Day: 12, Week: 46, Month: 11, Year: 2018, Weekday: 1},
	}
	second := []core.TimeDimension{
		{StartTime: "2018-12-01 00:00:00.000", Hour: 0, Day: 1, Week: 48, Month: 12, Year: 2018, Weekday: 6},
	}

	_, err := w.Write(ctx, core.TimeTable, core.AsRows(first))
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(root, "time", "year=2018", "month=11"))

	_, err = w.Write(ctx, core.TimeTable, core.AsRows(second))
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(root, "time", "year=2018", "month=11"))
	assert.DirExists(t, filepath.Join(root, "time", "year=2018", "month=12"))
}

func TestWriter_WriteUnpartitioned(t *testing.T) {
	ctx := context.Background()
	w, adp, root := newWriter(t)

	plays := []core.Songplay{
		{
			SongplayID: 1, StartTime: time.Date(2018, 11, 12, 2, 37, 38, 796_000_000, time.UTC),
			UserID: "26", Level: "free", SongID: "SOA", ArtistID: "ARX", SessionID: 583,
			Location: sql.NullString{String: "Austin, TX", Valid: true},
		},
	}

	res, err := w.Write(ctx, core.SongplaysTable, core.AsRows(plays))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)

	file := filepath.Join(root, "songplays", "data_0.parquet")
	assert.FileExists(t, file)
	assert.Equal(t, int64(1), count(t, adp, `SELECT COUNT(*) FROM read_parquet('`+file+`') WHERE user_agent IS NULL`))
}

func TestWriter_EmptyTables(t *testing.T) {
	ctx := context.Background()
	w, adp, root := newWriter(t)

	res, err := w.Write(ctx, core.SongplaysTable, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rows)
	file := filepath.Join(root, "songplays", "data_0.parquet")
	assert.FileExists(t, file, "unpartitioned tables always get a file carrying the schema")
	assert.Equal(t, int64(0), count(t, adp, `SELECT COUNT(*) FROM read_parquet('`+file+`')`))

	res, err = w.Write(ctx, core.TimeTable, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Files)
	entries, err := os.ReadDir(filepath.Join(root, "time"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriter_UnwritableDestination(t *testing.T) {
	ctx := context.Background()
	logger := testutil.NewTestLogger(t)
	adp := duckdb.New(logger)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	// A regular file where the output root directory should be.
	blocker := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	w := New(adp, storage.NewResolver(storage.Options{}, logger), blocker, logger)
	_, err := w.Write(ctx, core.ArtistsTable, core.AsRows([]core.Artist{{ArtistID: "ARX", Name: "X"}}))
	require.Error(t, err)

	var storageErr *core.StorageError
	assert.ErrorAs(t, err, &storageErr)
}
