// Package config loads songlake configuration.
//
// Values are layered with koanf: built-in defaults, then the YAML file, then
// SONGLAKE_* environment variables, then DATA_LOCATION. The result is a plain
// value that callers pass explicitly; nothing here is global.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/songlake/internal/storage"
	"github.com/leapstack-labs/songlake/pkg/core"
)

// Config is the full songlake configuration.
type Config struct {
	// DataLocation names the active entry in Profiles.
	DataLocation string             `koanf:"data_location"`
	Profiles     map[string]Profile `koanf:"profiles"`
	AWS          AWSConfig          `koanf:"aws"`
	GCP          GCPConfig          `koanf:"gcp"`
	Pipeline     PipelineConfig     `koanf:"pipeline"`
	Engine       EngineConfig       `koanf:"engine"`
	StatePath    string             `koanf:"state_path"`
	Log          LogConfig          `koanf:"log"`

	// ConfigFile is the file that was loaded, empty when none was found.
	ConfigFile string `koanf:"-"`
}

// Profile holds the three locations of one deployment.
type Profile struct {
	OutputData string `koanf:"output_data"`
	SongData   string `koanf:"song_data"`
	LogData    string `koanf:"log_data"`
}

// Remote reports whether any location of the profile lives in an object store.
func (p Profile) Remote() bool {
	return storage.IsRemote(p.OutputData) || storage.IsRemote(p.SongData) || storage.IsRemote(p.LogData)
}

// Schemes returns the distinct remote schemes used by the profile.
func (p Profile) Schemes() []string {
	var out []string
	seen := map[string]bool{}
	for _, loc := range []string{p.SongData, p.LogData, p.OutputData} {
		l, err := storage.ParseLocation(loc)
		if err != nil || !l.IsRemote() || seen[l.Scheme] {
			continue
		}
		seen[l.Scheme] = true
		out = append(out, l.Scheme)
	}
	return out
}

// AWSConfig holds S3 credentials. Empty keys fall back to the SDK default chain.
type AWSConfig struct {
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	SessionToken    string `koanf:"session_token"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	// URLStyle is "vhost" or "path".
	URLStyle string `koanf:"url_style"`
}

// GCPConfig holds GCS credentials.
type GCPConfig struct {
	// Credentials is a service-account key path or inline JSON.
	Credentials string `koanf:"credentials"`
	// HMACKeyID and HMACSecret let the engine read gs:// through its S3-compatible API.
	HMACKeyID  string `koanf:"hmac_key_id"`
	HMACSecret string `koanf:"hmac_secret"`
}

// PipelineConfig holds transformation options.
type PipelineConfig struct {
	UserSource    string `koanf:"user_source"`
	JoinPredicate string `koanf:"join_predicate"`
	// Partitions is the transformer parallelism; 0 means one per CPU.
	Partitions int `koanf:"partitions"`
}

// EngineConfig configures the processing engine.
type EngineConfig struct {
	Type string `koanf:"type"`
	// Database is the engine database file; empty is in-memory.
	Database string         `koanf:"database"`
	Params   map[string]any `koanf:"params"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `koanf:"level"`
	// Format is auto, text or json.
	Format string `koanf:"format"`
}

// Log formats.
const (
	LogFormatAuto = "auto"
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// SlogLevel parses the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return lvl, nil
}

// Active returns the profile selected by DataLocation.
func (c *Config) Active() (Profile, error) {
	p, ok := c.Profiles[c.DataLocation]
	if !ok {
		return Profile{}, fmt.Errorf("unknown data_location %q (available: %s)",
			c.DataLocation, strings.Join(c.profileNames(), ", "))
	}
	return p, nil
}

// PipelineOptions converts the pipeline section into transformer options.
func (c *Config) PipelineOptions() (core.PipelineOptions, error) {
	src, err := core.ParseUserSource(c.Pipeline.UserSource)
	if err != nil {
		return core.PipelineOptions{}, err
	}
	return core.PipelineOptions{
		UserSource:    src,
		JoinPredicate: c.Pipeline.JoinPredicate,
		Partitions:    c.Pipeline.Partitions,
	}, nil
}

// StorageOptions maps credentials onto the storage backends.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		S3: storage.S3Options{
			AccessKeyID:     c.AWS.AccessKeyID,
			SecretAccessKey: c.AWS.SecretAccessKey,
			SessionToken:    c.AWS.SessionToken,
			Region:          c.AWS.Region,
			Endpoint:        c.AWS.Endpoint,
			PathStyle:       c.AWS.URLStyle == "path",
		},
		GCS: storage.GCSOptions{
			Credentials: c.GCP.Credentials,
		},
	}
}
