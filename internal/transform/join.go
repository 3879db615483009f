package transform

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/leapstack-labs/songlake/pkg/core"
)

// Join predicate names accepted by PredicateByName.
const (
	PredicateExact      = "exact"
	PredicateNormalized = "normalized"
)

// JoinPredicate maps both sides of the fact join onto comparable keys.
// An event matches a song when their song keys are equal and non-empty,
// and likewise for artists.
type JoinPredicate interface {
	Name() string
	SongKey(s core.Song) string
	ArtistKey(a core.Artist) string
	// EventKeys returns the event's song and artist keys. An empty key never matches.
	EventKeys(e core.PlayEvent) (song, artist string)
}

// PredicateByName resolves a configured predicate. Empty selects exact matching.
func PredicateByName(name string) (JoinPredicate, error) {
	switch name {
	case "", PredicateExact:
		return ExactMatch{}, nil
	case PredicateNormalized:
		return NormalizedMatch{}, nil
	default:
		return nil, fmt.Errorf("unknown join predicate %q (want %q or %q)", name, PredicateExact, PredicateNormalized)
	}
}

// ExactMatch compares title to song and artist name to artist byte for byte.
type ExactMatch struct{}

func (ExactMatch) Name() string { return PredicateExact }

func (ExactMatch) SongKey(s core.Song) string { return s.Title }

func (ExactMatch) ArtistKey(a core.Artist) string { return a.Name }

func (ExactMatch) EventKeys(e core.PlayEvent) (string, string) {
	return e.Song.String, e.Artist.String
}

// NormalizedMatch compares NFKC-normalized, case-folded, whitespace-trimmed strings.
type NormalizedMatch struct{}

func (NormalizedMatch) Name() string { return PredicateNormalized }

func (NormalizedMatch) SongKey(s core.Song) string { return normalizeKey(s.Title) }

func (NormalizedMatch) ArtistKey(a core.Artist) string { return normalizeKey(a.Name) }

func (NormalizedMatch) EventKeys(e core.PlayEvent) (string, string) {
	return normalizeKey(e.Song.String), normalizeKey(e.Artist.String)
}

// normalizeKey builds a fresh Caser per call; Casers carry state and are not
// safe to share across the partition goroutines.
func normalizeKey(s string) string {
	s = strings.TrimSpace(norm.NFKC.String(s))
	return cases.Fold().String(s)
}
