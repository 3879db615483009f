package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionBounds(t *testing.T) {
	tests := []struct {
		name string
		n, p int
		want [][2]int
	}{
		{name: "empty", n: 0, p: 4, want: nil},
		{name: "single partition", n: 5, p: 1, want: [][2]int{{0, 5}}},
		{name: "more partitions than items", n: 2, p: 8, want: [][2]int{{0, 1}, {1, 2}}},
		{name: "uneven split", n: 7, p: 3, want: [][2]int{{0, 3}, {3, 6}, {6, 7}}},
		{name: "zero width falls back to one", n: 3, p: 0, want: [][2]int{{0, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, partitionBounds(tt.n, tt.p))
		})
	}
}

func TestMapPartitions_PreservesOrder(t *testing.T) {
	in := make([]int, 1000)
	for i := range in {
		in[i] = i
	}

	out, err := mapPartitions(context.Background(), in, 7, func(v int) (int, bool) {
		return v * 2, v%3 != 0
	})
	require.NoError(t, err)

	var want []int
	for _, v := range in {
		if v%3 != 0 {
			want = append(want, v*2)
		}
	}
	assert.Equal(t, want, out)
}

func TestMapPartitions_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mapPartitions(ctx, []int{1, 2, 3}, 2, func(v int) (int, bool) { return v, true })
	assert.ErrorIs(t, err, context.Canceled)
}
