package transform

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/leapstack-labs/songlake/pkg/core"
)

// StartTimeLayout formats the display start_time of the time dimension.
const StartTimeLayout = "2006-01-02 15:04:05.000"

// ActivityTransformer filters raw activity to play events, derives their
// timestamps and projects the users dimension.
type ActivityTransformer struct {
	userSource core.UserSource
	partitions int
}

// NewActivityTransformer creates a transformer. userSource picks the record set
// users are drawn from: only NextSong events, or every activity record.
func NewActivityTransformer(userSource core.UserSource, partitions int) *ActivityTransformer {
	if userSource == "" {
		userSource = core.UserSourceFiltered
	}
	return &ActivityTransformer{userSource: userSource, partitions: partitions}
}

// ActivityResult holds the play stream and the users dimension.
type ActivityResult struct {
	Events []core.PlayEvent
	Users  []core.User
	// Discarded counts records that were not play events.
	Discarded int
}

// Transform runs the filter, timestamp derivation and user projection.
func (t *ActivityTransformer) Transform(ctx context.Context, records []core.ActivityRecord) (*ActivityResult, error) {
	events, err := mapPartitions(ctx, records, t.partitions, func(r core.ActivityRecord) (core.PlayEvent, bool) {
		if !r.IsPlay() {
			return core.PlayEvent{}, false
		}
		return NewPlayEvent(r), true
	})
	if err != nil {
		return nil, err
	}

	source := records
	if t.userSource == core.UserSourceFiltered {
		source = make([]core.ActivityRecord, len(events))
		for i, e := range events {
			source[i] = e.ActivityRecord
		}
	}
	users, err := t.users(ctx, source)
	if err != nil {
		return nil, err
	}

	return &ActivityResult{
		Events:    events,
		Users:     users,
		Discarded: len(records) - len(events),
	}, nil
}

// users projects and deduplicates user rows over the full row.
// Records without a userId are logged-out traffic and never yield a user.
func (t *ActivityTransformer) users(ctx context.Context, records []core.ActivityRecord) ([]core.User, error) {
	projected, err := mapPartitions(ctx, records, t.partitions, func(r core.ActivityRecord) (core.User, bool) {
		if r.UserID == "" {
			return core.User{}, false
		}
		return core.User{
			UserID:    r.UserID,
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Gender:    r.Gender,
			Level:     r.Level,
		}, true
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[core.User]struct{}, len(projected))
	users := make([]core.User, 0, len(projected))
	for _, u := range projected {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		users = append(users, u)
	}
	slices.SortFunc(users, compareUsers)
	return users, nil
}

func compareUsers(a, b core.User) int {
	return cmp.Or(
		cmp.Compare(a.UserID, b.UserID),
		cmp.Compare(a.Level, b.Level),
		cmp.Compare(a.FirstName.String, b.FirstName.String),
		cmp.Compare(a.LastName.String, b.LastName.String),
		cmp.Compare(a.Gender.String, b.Gender.String),
	)
}

// NewPlayEvent derives both timestamp fields from a single conversion of ts.
func NewPlayEvent(r core.ActivityRecord) core.PlayEvent {
	ts, display := DeriveTimestamps(r.TS)
	return core.PlayEvent{ActivityRecord: r, Timestamp: ts, StartTime: display}
}

// DeriveTimestamps converts epoch milliseconds to a UTC time and its display string.
// time.UnixMilli is exact, so ts/1000 seconds are represented without float drift.
func DeriveTimestamps(tsMillis int64) (time.Time, string) {
	ts := time.UnixMilli(tsMillis).UTC()
	return ts, ts.Format(StartTimeLayout)
}
