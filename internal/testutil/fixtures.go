package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// WriteJSONLines writes records as newline-delimited JSON to path, creating parent dirs.
func WriteJSONLines(t testing.TB, path string, records ...map[string]any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	f, err := os.Create(path) //nolint:gosec // test fixture path
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode %s: %v", path, err)
		}
	}
}

// Dataset describes the fixture feeds written by WriteDataset and the table
// sizes a full run over them must produce.
type Dataset struct {
	SongData string
	LogData  string

	Songs   int
	Artists int
	// Users is the users row count with the filtered user source.
	Users int
	// UnfilteredUsers is the users row count with the unfiltered user source.
	UnfilteredUsers int
	Time            int
	Events          int
	Dropped         int
	Songplays       int
}

// CatalogRecord builds a catalog JSON object.
func CatalogRecord(songID, title, artistID string, year int, duration float64, artistName string) map[string]any {
	return map[string]any{
		"num_songs":        1,
		"song_id":          songID,
		"title":            title,
		"artist_id":        artistID,
		"year":             year,
		"duration":         duration,
		"artist_name":      artistName,
		"artist_location":  nil,
		"artist_latitude":  nil,
		"artist_longitude": nil,
	}
}

// ActivityRecord builds an activity-log JSON object. song and artist are
// written as null when empty.
func ActivityRecord(page, userID, level string, ts int64, sessionID int, song, artist string) map[string]any {
	r := map[string]any{
		"page":          page,
		"userId":        userID,
		"firstName":     "First" + userID,
		"lastName":      "Last" + userID,
		"gender":        "F",
		"level":         level,
		"ts":            ts,
		"sessionId":     sessionID,
		"location":      "San Jose-Sunnyvale-Santa Clara, CA",
		"userAgent":     "Mozilla/5.0",
		"song":          nil,
		"artist":        nil,
		"auth":          "Logged In",
		"itemInSession": 0,
		"method":        "PUT",
		"status":        200,
	}
	if userID == "" {
		r["firstName"], r["lastName"], r["gender"] = nil, nil, nil
		r["auth"] = "Logged Out"
	}
	if song != "" {
		r["song"] = song
	}
	if artist != "" {
		r["artist"] = artist
	}
	return r
}

// WriteDataset writes a small catalog tree and activity log under dir.
//
// Catalog: three songs by two artists (Artist X appears twice).
// Activity: four NextSong events, one of which names an unknown song,
// plus a Login and a logged-out Home record.
func WriteDataset(t testing.TB, dir string) Dataset {
	t.Helper()

	songData := filepath.Join(dir, "song_data")
	logData := filepath.Join(dir, "log_data")

	songA := CatalogRecord("SOAAAAA12A8C13F0E1", "Song A", "ARX00001187B9A5E1", 2001, 200.5, "Artist X")
	songA["artist_location"] = "Austin, TX"
	songA["artist_latitude"] = 30.26715
	songA["artist_longitude"] = -97.74306

	songC := CatalogRecord("SOCCCCC12A8C13F0E3", "Song C", "ARX00001187B9A5E1", 2001, 99.9, "Artist X")
	songC["artist_location"] = "Austin, TX"
	songC["artist_latitude"] = 30.26715
	songC["artist_longitude"] = -97.74306

	WriteJSONLines(t, filepath.Join(songData, "A", "A", "A", "TRAAAAA128F4235AB1.json"), songA)
	WriteJSONLines(t, filepath.Join(songData, "A", "A", "B", "TRAABBB128F4235AB2.json"),
		CatalogRecord("SOBBBBB12A8C13F0E2", "Song B", "ARY00001187B9A5E2", 0, 150, "Artist Y"))
	WriteJSONLines(t, filepath.Join(songData, "A", "B", "A", "TRABAAA128F4235AB3.json"), songC)

	WriteJSONLines(t, filepath.Join(logData, "2018", "11", "2018-11-12-events.json"),
		ActivityRecord("Login", "7", "free", 1541990000000, 100, "", ""),
		ActivityRecord("NextSong", "26", "free", 1541990258796, 583, "Song A", "Artist X"),
		ActivityRecord("NextSong", "26", "free", 1541990400000, 583, "Song B", "Artist Y"),
		ActivityRecord("Home", "", "free", 1541990450000, 600, "", ""),
		ActivityRecord("NextSong", "27", "free", 1541990500000, 584, "Unknown Song", "Artist X"),
	)
	WriteJSONLines(t, filepath.Join(logData, "2018", "12", "2018-12-01-events.json"),
		ActivityRecord("NextSong", "27", "paid", 1543622400000, 700, "Song C", "Artist X"),
	)

	return Dataset{
		SongData:        songData,
		LogData:         logData,
		Songs:           3,
		Artists:         3,
		Users:           3,
		UnfilteredUsers: 4,
		Time:            4,
		Events:          4,
		Dropped:         1,
		Songplays:       3,
	}
}
