package transform

import (
	"database/sql"

	"github.com/leapstack-labs/songlake/pkg/core"
)

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func activity(page, userID string, ts int64, song, artist string) core.ActivityRecord {
	r := core.ActivityRecord{
		Page:      page,
		UserID:    userID,
		FirstName: nullStr("First" + userID),
		LastName:  nullStr("Last" + userID),
		Gender:    nullStr("F"),
		Level:     "free",
		TS:        ts,
		SessionID: 100,
		Location:  nullStr("Somewhere, CA"),
		UserAgent: nullStr("agent"),
	}
	if song != "" {
		r.Song = nullStr(song)
	}
	if artist != "" {
		r.Artist = nullStr(artist)
	}
	return r
}

func play(userID string, ts int64, song, artist string) core.PlayEvent {
	return NewPlayEvent(activity(core.PageNextSong, userID, ts, song, artist))
}
