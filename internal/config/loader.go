package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config file discovery.
const (
	ConfigFileName    = "songlake.yaml"
	ConfigFileNameAlt = "songlake.yml"
	// ConfigEnvVar names an explicit config file.
	ConfigEnvVar = "SONGLAKE_CONFIG"
	// EnvPrefix prefixes config overrides; "__" separates nesting levels.
	EnvPrefix = "SONGLAKE_"
	// DataLocationEnvVar selects the active profile, overriding everything else.
	DataLocationEnvVar = "DATA_LOCATION"
)

// findConfigFile resolves the config file to load.
// Priority: explicit path > SONGLAKE_CONFIG > songlake.yaml > songlake.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(ConfigEnvVar); p != "" {
		return p
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads configuration from defaults, the config file and the environment.
// An empty path searches the working directory. The result is validated.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	cfgFile := findConfigFile(path)
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. SONGLAKE_ environment variables
	// Transform: SONGLAKE_PIPELINE__USER_SOURCE -> pipeline.user_source
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue(envKey)), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. DATA_LOCATION
	if err := k.Load(env.ProviderWithValue(DataLocationEnvVar, ".", envValue(func(s string) string {
		if s != DataLocationEnvVar {
			return ""
		}
		return "data_location"
	})), nil); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", DataLocationEnvVar, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = cfgFile

	expandConfigEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// envKey maps an environment variable name to a koanf key.
// SONGLAKE_CONFIG is the file selector, not a key.
func envKey(s string) string {
	if s == ConfigEnvVar {
		return ""
	}
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// envValue adapts a key mapper for env.ProviderWithValue. Empty values are
// skipped so an exported but blank variable does not erase a lower layer.
func envValue(key func(string) string) func(string, string) (string, any) {
	return func(k, v string) (string, any) {
		if v == "" {
			return "", nil
		}
		return key(k), v
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
// Unset variables are left as-is.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// expandConfigEnvVars expands placeholders in locations and credentials.
func expandConfigEnvVars(c *Config) {
	for name, p := range c.Profiles {
		p.OutputData = expandEnvVars(p.OutputData)
		p.SongData = expandEnvVars(p.SongData)
		p.LogData = expandEnvVars(p.LogData)
		c.Profiles[name] = p
	}

	c.AWS.AccessKeyID = expandEnvVars(c.AWS.AccessKeyID)
	c.AWS.SecretAccessKey = expandEnvVars(c.AWS.SecretAccessKey)
	c.AWS.SessionToken = expandEnvVars(c.AWS.SessionToken)
	c.AWS.Region = expandEnvVars(c.AWS.Region)
	c.AWS.Endpoint = expandEnvVars(c.AWS.Endpoint)

	c.GCP.Credentials = expandEnvVars(c.GCP.Credentials)
	c.GCP.HMACKeyID = expandEnvVars(c.GCP.HMACKeyID)
	c.GCP.HMACSecret = expandEnvVars(c.GCP.HMACSecret)

	c.Engine.Database = expandEnvVars(c.Engine.Database)
	c.StatePath = expandEnvVars(c.StatePath)
}
