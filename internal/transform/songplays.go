package transform

import (
	"cmp"
	"context"
	"slices"

	"github.com/leapstack-labs/songlake/pkg/core"
)

// FactBuilder joins play events against the persisted songs and artists
// dimensions and assigns dense surrogate keys.
type FactBuilder struct {
	predicate  JoinPredicate
	partitions int
}

// NewFactBuilder creates a builder. A nil predicate selects exact matching.
func NewFactBuilder(predicate JoinPredicate, partitions int) *FactBuilder {
	if predicate == nil {
		predicate = ExactMatch{}
	}
	return &FactBuilder{predicate: predicate, partitions: partitions}
}

// FactResult holds the fact rows and the join accounting.
// Events == len(Songplays) + NoSong + NoArtist always holds.
type FactResult struct {
	Songplays []core.Songplay
	Events    int
	// NoSong counts events whose song key matched no song.
	NoSong int
	// NoArtist counts events that matched a song but no artist.
	NoArtist int
	// Ambiguous counts matched events where a key had several candidates.
	Ambiguous int
}

// Dropped returns the number of events that produced no fact row.
func (r *FactResult) Dropped() int {
	return r.NoSong + r.NoArtist
}

type candidate[T any] struct {
	row T
	id  string
	ids map[string]struct{}
}

func (c *candidate[T]) ambiguous() bool { return len(c.ids) > 1 }

type missKind int

const (
	matched missKind = iota
	missSong
	missArtist
)

type joinOutcome struct {
	play      core.Songplay
	miss      missKind
	ambiguous bool
}

// Build performs the inner joins. location is taken from the matched artist,
// not the raw event. Each event yields at most one fact row: when
// a key matches several songs (or artists) the smallest id wins.
func (b *FactBuilder) Build(ctx context.Context, events []core.PlayEvent, songs []core.Song, artists []core.Artist) (*FactResult, error) {
	songIndex := buildIndex(songs, b.predicate.SongKey, func(s core.Song) string { return s.SongID })
	artistIndex := buildIndex(artists, b.predicate.ArtistKey, func(a core.Artist) string { return a.ArtistID })

	outcomes, err := mapPartitions(ctx, events, b.partitions, func(e core.PlayEvent) (joinOutcome, bool) {
		songKey, artistKey := b.predicate.EventKeys(e)
		song, ok := songIndex[songKey]
		if !ok || songKey == "" {
			return joinOutcome{miss: missSong}, true
		}
		artist, ok := artistIndex[artistKey]
		if !ok || artistKey == "" {
			return joinOutcome{miss: missArtist}, true
		}
		return joinOutcome{
			play: core.Songplay{
				StartTime: e.Timestamp,
				UserID:    e.UserID,
				Level:     e.Level,
				SongID:    song.row.SongID,
				ArtistID:  artist.row.ArtistID,
				SessionID: e.SessionID,
				Location:  artist.row.Location,
				UserAgent: e.UserAgent,
			},
			ambiguous: song.ambiguous() || artist.ambiguous(),
		}, true
	})
	if err != nil {
		return nil, err
	}

	res := &FactResult{Events: len(events)}
	plays := make([]core.Songplay, 0, len(outcomes))
	for _, o := range outcomes {
		switch o.miss {
		case missSong:
			res.NoSong++
		case missArtist:
			res.NoArtist++
		default:
			if o.ambiguous {
				res.Ambiguous++
			}
			plays = append(plays, o.play)
		}
	}

	// Surrogate keys follow a total order, so reruns on the same input
	// number the same rows the same way.
	slices.SortFunc(plays, compareSongplays)
	for i := range plays {
		plays[i].SongplayID = int64(i + 1)
	}
	res.Songplays = plays
	return res, nil
}

func compareSongplays(a, b core.Songplay) int {
	return cmp.Or(
		a.StartTime.Compare(b.StartTime),
		cmp.Compare(a.SessionID, b.SessionID),
		cmp.Compare(a.UserID, b.UserID),
		cmp.Compare(a.SongID, b.SongID),
		cmp.Compare(a.ArtistID, b.ArtistID),
		cmp.Compare(a.Level, b.Level),
		cmp.Compare(a.Location.String, b.Location.String),
		cmp.Compare(a.UserAgent.String, b.UserAgent.String),
	)
}

// buildIndex keys rows by key(row). Where a key maps to rows with different
// ids, the row with the smallest id is kept.
func buildIndex[T any](rows []T, key, id func(T) string) map[string]*candidate[T] {
	idx := make(map[string]*candidate[T], len(rows))
	for _, r := range rows {
		k := key(r)
		if k == "" {
			continue
		}
		rid := id(r)
		c, ok := idx[k]
		if !ok {
			idx[k] = &candidate[T]{row: r, id: rid, ids: map[string]struct{}{rid: {}}}
			continue
		}
		c.ids[rid] = struct{}{}
		if rid < c.id {
			c.row, c.id = r, rid
		}
	}
	return idx
}
