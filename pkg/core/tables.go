package core

// Output table names, used as DAG node IDs and as directory names under the output root.
const (
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableUsers     = "users"
	TableTime      = "time"
	TableSongplays = "songplays"
)

// Column describes an output column and its engine type.
type Column struct {
	Name string
	Type string
}

// TableSpec describes how an output table is laid out on disk.
type TableSpec struct {
	Name        string
	Columns     []Column
	PartitionBy []string
	// OrderBy is the stable order rows are written in.
	OrderBy []string
}

// ColumnNames returns the column names in declaration order.
func (t TableSpec) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Partitioned reports whether the table is written as hive-style partitions.
func (t TableSpec) Partitioned() bool {
	return len(t.PartitionBy) > 0
}

// SongsTable is partitioned by year, then artist_id.
var SongsTable = TableSpec{
	Name: TableSongs,
	Columns: []Column{
		{"song_id", "VARCHAR"},
		{"title", "VARCHAR"},
		{"artist_id", "VARCHAR"},
		{"year", "BIGINT"},
		{"duration", "DOUBLE"},
	},
	PartitionBy: []string{"year", "artist_id"},
	OrderBy:     []string{"song_id"},
}

// ArtistsTable is unpartitioned.
var ArtistsTable = TableSpec{
	Name: TableArtists,
	Columns: []Column{
		{"artist_id", "VARCHAR"},
		{"name", "VARCHAR"},
		{"location", "VARCHAR"},
		{"latitude", "DOUBLE"},
		{"longitude", "DOUBLE"},
	},
	OrderBy: []string{"artist_id", "name"},
}

// UsersTable is unpartitioned.
var UsersTable = TableSpec{
	Name: TableUsers,
	Columns: []Column{
		{"user_id", "VARCHAR"},
		{"first_name", "VARCHAR"},
		{"last_name", "VARCHAR"},
		{"gender", "VARCHAR"},
		{"level", "VARCHAR"},
	},
	OrderBy: []string{"user_id", "level"},
}

// TimeTable is partitioned by year, then month.
var TimeTable = TableSpec{
	Name: TableTime,
	Columns: []Column{
		{"start_time", "VARCHAR"},
		{"hour", "INTEGER"},
		{"day", "INTEGER"},
		{"week", "INTEGER"},
		{"month", "INTEGER"},
		{"year", "INTEGER"},
		{"weekday", "INTEGER"},
	},
	PartitionBy: []string{"year", "month"},
	OrderBy:     []string{"start_time"},
}

// SongplaysTable is unpartitioned.
var SongplaysTable = TableSpec{
	Name: TableSongplays,
	Columns: []Column{
		{"songplay_id", "BIGINT"},
		{"start_time", "TIMESTAMP"},
		{"user_id", "VARCHAR"},
		{"level", "VARCHAR"},
		{"song_id", "VARCHAR"},
		{"artist_id", "VARCHAR"},
		{"session_id", "BIGINT"},
		{"location", "VARCHAR"},
		{"user_agent", "VARCHAR"},
	},
	OrderBy: []string{"songplay_id"},
}

// Tables lists every output table in a fixed order.
var Tables = []TableSpec{SongsTable, ArtistsTable, UsersTable, TimeTable, SongplaysTable}
