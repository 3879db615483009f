package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/songlake/pkg/core"
)

func TestTimeRow(t *testing.T) {
	tests := []struct {
		name string
		ts   int64
		want core.TimeDimension
	}{
		{
			name: "monday in november",
			ts:   1541990258796,
			want: core.TimeDimension{StartTime: "2018-11-12 02:37:38.796", Hour: 2, Day: 12, Week: 46, Month: 11, Year: 2018, Weekday: 1},
		},
		{
			name: "sunday is weekday seven",
			ts:   1541902800000, // 2018-11-11 02:20:00 UTC
			want: core.TimeDimension{StartTime: "2018-11-11 02:20:00.000", Hour: 2, Day: 11, Week: 45, Month: 11, Year: 2018, Weekday: 7},
		},
		{
			name: "iso week belongs to next year but year is calendar year",
			ts:   1546214400000, // 2018-12-31 00:00:00 UTC
			want: core.TimeDimension{StartTime: "2018-12-31 00:00:00.000", Hour: 0, Day: 31, Week: 1, Month: 12, Year: 2018, Weekday: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeRow(play("1", tt.ts, "s", "a")))
		})
	}
}

func TestTimeDeriver_DistinctAndOrdered(t *testing.T) {
	events := []core.PlayEvent{
		play("1", 1541990400000, "s", "a"),
		play("2", 1541990258796, "s", "a"),
		play("3", 1541990400000, "s", "a"),
	}

	rows, err := NewTimeDeriver(2).Derive(context.Background(), events)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "2018-11-12 02:37:38.796", rows[0].StartTime)
	assert.Equal(t, "2018-11-12 02:40:00.000", rows[1].StartTime)
}
