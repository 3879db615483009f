package transform

import (
	"context"
	"slices"

	"github.com/leapstack-labs/songlake/pkg/core"
)

// TimeDeriver expands play-event timestamps into the time dimension.
//
// Calendar fields are taken in UTC. week is the ISO-8601 week number and
// weekday the ISO-8601 day of week (1 = Monday ... 7 = Sunday); year is the
// calendar year, not the ISO week-numbering year.
type TimeDeriver struct {
	partitions int
}

// NewTimeDeriver creates a deriver using the given parallel width.
func NewTimeDeriver(partitions int) *TimeDeriver {
	return &TimeDeriver{partitions: partitions}
}

// Derive returns distinct time rows ordered by start_time.
func (d *TimeDeriver) Derive(ctx context.Context, events []core.PlayEvent) ([]core.TimeDimension, error) {
	rows, err := mapPartitions(ctx, events, d.partitions, func(e core.PlayEvent) (core.TimeDimension, bool) {
		return TimeRow(e), true
	})
	if err != nil {
		return nil, err
	}

	// Single global pass: order by start_time, then collapse equal rows.
	slices.SortFunc(rows, func(a, b core.TimeDimension) int {
		if a.StartTime < b.StartTime {
			return -1
		}
		if a.StartTime > b.StartTime {
			return 1
		}
		return 0
	})
	return slices.Compact(rows), nil
}

// TimeRow decomposes one event's timestamp. All fields come from e.Timestamp
// and e.StartTime, which share one conversion.
func TimeRow(e core.PlayEvent) core.TimeDimension {
	ts := e.Timestamp.UTC()
	_, week := ts.ISOWeek()
	weekday := int(ts.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return core.TimeDimension{
		StartTime: e.StartTime,
		Hour:      ts.Hour(),
		Day:       ts.Day(),
		Week:      week,
		Month:     int(ts.Month()),
		Year:      ts.Year(),
		Weekday:   weekday,
	}
}
