package core

import (
	"database/sql"
	"database/sql/driver"
	"time"
)

// Row is a star-schema row that can be handed to the table writer.
// Values must be returned in the column order of the row's TableSpec.
type Row interface {
	Values() []driver.Value
}

// Song is a row of the songs dimension.
type Song struct {
	SongID   string
	Title    string
	ArtistID string
	Year     int64
	Duration float64
}

// Values implements Row.
func (s Song) Values() []driver.Value {
	return []driver.Value{s.SongID, s.Title, s.ArtistID, s.Year, s.Duration}
}

// Artist is a row of the artists dimension.
type Artist struct {
	ArtistID  string
	Name      string
	Location  sql.NullString
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
}

// Values implements Row.
func (a Artist) Values() []driver.Value {
	return []driver.Value{a.ArtistID, a.Name, nullValue(a.Location), nullValue(a.Latitude), nullValue(a.Longitude)}
}

// User is a row of the users dimension. Rows are distinct over all fields.
type User struct {
	UserID    string
	FirstName sql.NullString
	LastName  sql.NullString
	Gender    sql.NullString
	Level     string
}

// Values implements Row.
func (u User) Values() []driver.Value {
	return []driver.Value{u.UserID, nullValue(u.FirstName), nullValue(u.LastName), nullValue(u.Gender), u.Level}
}

// TimeDimension is a row of the time dimension.
type TimeDimension struct {
	StartTime string
	Hour      int
	Day       int
	Week      int // ISO-8601 week number
	Month     int
	Year      int
	Weekday   int // ISO-8601 weekday, 1 = Monday ... 7 = Sunday
}

// Values implements Row.
func (t TimeDimension) Values() []driver.Value {
	return []driver.Value{
		t.StartTime,
		int32(t.Hour), int32(t.Day), int32(t.Week), int32(t.Month), int32(t.Year), int32(t.Weekday),
	}
}

// Songplay is a row of the songplays fact table.
type Songplay struct {
	SongplayID int64
	StartTime  time.Time
	UserID     string
	Level      string
	SongID     string
	ArtistID   string
	SessionID  int64
	Location   sql.NullString
	UserAgent  sql.NullString
}

// Values implements Row.
func (p Songplay) Values() []driver.Value {
	return []driver.Value{
		p.SongplayID, p.StartTime, p.UserID, p.Level, p.SongID, p.ArtistID,
		p.SessionID, nullValue(p.Location), nullValue(p.UserAgent),
	}
}

func nullValue(v driver.Valuer) driver.Value {
	val, _ := v.Value()
	return val
}

// AsRows converts a typed row slice for the table writer.
func AsRows[T Row](in []T) []Row {
	out := make([]Row, len(in))
	for i, r := range in {
		out[i] = r
	}
	return out
}
