package core

import "fmt"

// UserSource selects which activity records feed the users dimension.
type UserSource string

// User source values.
const (
	// UserSourceFiltered derives users from NextSong events only.
	UserSourceFiltered UserSource = "filtered"
	// UserSourceUnfiltered derives users from every activity record.
	UserSourceUnfiltered UserSource = "unfiltered"
)

// ParseUserSource validates a configured user source. Empty selects the default.
func ParseUserSource(s string) (UserSource, error) {
	switch UserSource(s) {
	case "":
		return UserSourceFiltered, nil
	case UserSourceFiltered, UserSourceUnfiltered:
		return UserSource(s), nil
	default:
		return "", fmt.Errorf("invalid user_source %q (want %q or %q)", s, UserSourceFiltered, UserSourceUnfiltered)
	}
}

// PipelineOptions carries the transformation knobs.
type PipelineOptions struct {
	UserSource UserSource
	// JoinPredicate names the fact join predicate (see transform.PredicateByName).
	JoinPredicate string
	// Partitions is the data-parallel width of the transformers.
	Partitions int
}
