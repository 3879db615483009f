package core

import (
	"database/sql"
	"time"
)

// PageNextSong is the activity page value that marks a completed play.
const PageNextSong = "NextSong"

// CatalogRecord is one raw catalog entry as read from the song feed.
type CatalogRecord struct {
	SongID          string
	Title           string
	ArtistID        string
	Year            int64
	Duration        float64
	ArtistName      string
	ArtistLocation  sql.NullString
	ArtistLatitude  sql.NullFloat64
	ArtistLongitude sql.NullFloat64
}

// ActivityRecord is one raw page event as read from the activity log feed.
type ActivityRecord struct {
	Page      string
	UserID    string
	FirstName sql.NullString
	LastName  sql.NullString
	Gender    sql.NullString
	Level     string
	TS        int64 // epoch milliseconds
	Song      sql.NullString
	Artist    sql.NullString
	SessionID int64
	Location  sql.NullString
	UserAgent sql.NullString
}

// IsPlay reports whether the record is a completed play event.
func (r ActivityRecord) IsPlay() bool {
	return r.Page == PageNextSong
}

// PlayEvent is a NextSong activity record augmented with its derived timestamps.
// Timestamp and StartTime always come from the same conversion of TS.
type PlayEvent struct {
	ActivityRecord
	Timestamp time.Time
	StartTime string
}
