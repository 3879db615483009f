package config

// Default configuration values.
const (
	DefaultDataLocation  = "local"
	DefaultEngine        = "duckdb"
	DefaultStateFile     = ".songlake/state.db"
	DefaultLogLevel      = "info"
	DefaultUserSource    = "filtered"
	DefaultJoinPredicate = "exact"
	DefaultAWSRegion     = "us-west-2"
)

// defaults is the bottom configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"data_location":              DefaultDataLocation,
		"profiles.local.output_data": "./out",
		"profiles.local.song_data":   "./data/song_data",
		"profiles.local.log_data":    "./data/log_data",
		"aws.region":                 DefaultAWSRegion,
		"pipeline.user_source":       DefaultUserSource,
		"pipeline.join_predicate":    DefaultJoinPredicate,
		"pipeline.partitions":        0,
		"engine.type":                DefaultEngine,
		"engine.database":            "",
		"state_path":                 DefaultStateFile,
		"log.level":                  DefaultLogLevel,
		"log.format":                 LogFormatAuto,
	}
}
