package transform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/songlake/pkg/core"
)

func TestDeriveTimestamps(t *testing.T) {
	ts, display := DeriveTimestamps(1541990258796)

	assert.Equal(t, time.Date(2018, 11, 12, 2, 37, 38, 796_000_000, time.UTC), ts)
	assert.Equal(t, "2018-11-12 02:37:38.796", display)
}

func TestActivityTransformer_FiltersPlays(t *testing.T) {
	records := []core.ActivityRecord{
		activity("Home", "1", 1541990000000, "", ""),
		activity(core.PageNextSong, "1", 1541990258796, "Song A", "Artist X"),
		activity("Logout", "1", 1541990300000, "", ""),
		activity(core.PageNextSong, "2", 1541990400000, "Song B", "Artist Y"),
	}

	res, err := NewActivityTransformer(core.UserSourceFiltered, 3).Transform(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, res.Events, 2)
	assert.Equal(t, 2, res.Discarded)
	for _, e := range res.Events {
		assert.Equal(t, core.PageNextSong, e.Page)
		wantTS, wantDisplay := DeriveTimestamps(e.TS)
		assert.Equal(t, wantTS, e.Timestamp)
		assert.Equal(t, wantDisplay, e.StartTime)
	}
}

func TestActivityTransformer_NoPlaysIsNotAnError(t *testing.T) {
	records := []core.ActivityRecord{
		activity("Home", "1", 1541990000000, "", ""),
	}

	res, err := NewActivityTransformer(core.UserSourceFiltered, 1).Transform(context.Background(), records)
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Empty(t, res.Users)
}

func TestActivityTransformer_UserSource(t *testing.T) {
	records := []core.ActivityRecord{
		activity("Login", "7", 1541990000000, "", ""),
		activity(core.PageNextSong, "1", 1541990258796, "Song A", "Artist X"),
		activity(core.PageNextSong, "1", 1541990300000, "Song B", "Artist X"),
		activity("Home", "", 1541990400000, "", ""),
	}

	tests := []struct {
		name    string
		source  core.UserSource
		wantIDs []string
	}{
		{name: "filtered excludes non-play users", source: core.UserSourceFiltered, wantIDs: []string{"1"}},
		{name: "unfiltered includes every logged-in user", source: core.UserSourceUnfiltered, wantIDs: []string{"1", "7"}},
		{name: "empty defaults to filtered", source: "", wantIDs: []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewActivityTransformer(tt.source, 2).Transform(context.Background(), records)
			require.NoError(t, err)

			ids := make([]string, len(res.Users))
			for i, u := range res.Users {
				ids[i] = u.UserID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestActivityTransformer_UsersDistinctOverFullRow(t *testing.T) {
	free := activity(core.PageNextSong, "1", 1541990258796, "Song A", "Artist X")
	paid := free
	paid.Level = "paid"
	paid.TS++

	records := []core.ActivityRecord{free, free, paid}

	res, err := NewActivityTransformer(core.UserSourceFiltered, 2).Transform(context.Background(), records)
	require.NoError(t, err)

	// A level change is a distinct row; the exact duplicate collapses.
	require.Len(t, res.Users, 2)
	assert.Equal(t, "free", res.Users[0].Level)
	assert.Equal(t, "paid", res.Users[1].Level)
}
