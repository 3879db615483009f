package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/songlake/pkg/core"
)

func TestPredicateByName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantErr  bool
	}{
		{name: "default", input: "", wantName: PredicateExact},
		{name: "exact", input: "exact", wantName: PredicateExact},
		{name: "normalized", input: "normalized", wantName: PredicateNormalized},
		{name: "unknown", input: "fuzzy", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PredicateByName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "fuzzy")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestNormalizedMatch_Keys(t *testing.T) {
	p := NormalizedMatch{}

	song := core.Song{Title: "  Ｓｏｎｇ Ａ "}
	event := play("1", 1541990258796, "SONG A", "Ｂｊöｒｋ")
	artist := core.Artist{Name: "björk"}

	songKey, artistKey := p.EventKeys(event)
	assert.Equal(t, p.SongKey(song), songKey)
	assert.Equal(t, p.ArtistKey(artist), artistKey)
}

func TestExactMatch_IsCaseSensitive(t *testing.T) {
	p := ExactMatch{}
	songKey, _ := p.EventKeys(play("1", 1541990258796, "song a", "x"))
	assert.NotEqual(t, p.SongKey(core.Song{Title: "Song A"}), songKey)
}
