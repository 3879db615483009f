package engine

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/leapstack-labs/songlake/internal/config"
	"github.com/leapstack-labs/songlake/internal/storage"
	"github.com/leapstack-labs/songlake/pkg/adapter"
)

// remoteExtension reads and writes object-store locations.
const remoteExtension = "httpfs"

// ConfigFrom builds an engine configuration from the loaded file configuration.
// Remote profiles get the httpfs extension and a secret per object store.
func ConfigFrom(c *config.Config) (Config, error) {
	profile, err := c.Active()
	if err != nil {
		return Config{}, err
	}
	opts, err := c.PipelineOptions()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Profile:    c.DataLocation,
		SongData:   profile.SongData,
		LogData:    profile.LogData,
		OutputData: profile.OutputData,
		Pipeline:   opts,
		AdapterConfig: adapter.Config{
			Type:   c.Engine.Type,
			Path:   c.Engine.Database,
			Params: engineParams(c, profile),
		},
		Storage:   c.StorageOptions(),
		StatePath: c.StatePath,
	}, nil
}

// engineParams extends the configured adapter params for the profile's
// remote schemes. The configured map is not modified.
func engineParams(c *config.Config, profile config.Profile) map[string]any {
	params := maps.Clone(c.Engine.Params)
	if params == nil {
		params = map[string]any{}
	}

	schemes := profile.Schemes()
	if len(schemes) == 0 {
		return params
	}

	exts := toStrings(params["extensions"])
	if !slices.Contains(exts, remoteExtension) {
		exts = append(exts, remoteExtension)
	}
	params["extensions"] = exts

	secrets := toSlice(params["secrets"])
	for _, scheme := range schemes {
		if s := secretFor(c, scheme); s != nil {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		params["secrets"] = secrets
	}
	return params
}

// secretFor returns the engine secret for an object-store scheme, or nil
// when no credentials are configured for it.
func secretFor(c *config.Config, scheme string) map[string]any {
	switch scheme {
	case storage.SchemeS3:
		s := map[string]any{"type": "s3", "region": c.AWS.Region}
		if c.AWS.AccessKeyID != "" {
			s["provider"] = "config"
			s["key_id"] = c.AWS.AccessKeyID
			s["secret"] = c.AWS.SecretAccessKey
			s["session_token"] = c.AWS.SessionToken
		} else {
			s["provider"] = "credential_chain"
		}
		if c.AWS.Endpoint != "" {
			host, ssl := splitEndpoint(c.AWS.Endpoint)
			s["endpoint"] = host
			s["use_ssl"] = ssl
		}
		if c.AWS.URLStyle != "" {
			s["url_style"] = c.AWS.URLStyle
		}
		return s
	case storage.SchemeGCS:
		if c.GCP.HMACKeyID == "" {
			return nil
		}
		return map[string]any{"type": "gcs", "key_id": c.GCP.HMACKeyID, "secret": c.GCP.HMACSecret}
	default:
		return nil
	}
}

// splitEndpoint strips the URL scheme the engine does not accept.
func splitEndpoint(endpoint string) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), false
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), true
	default:
		return endpoint, true
	}
}

func toStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return slices.Clone(list)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

func toSlice(v any) []any {
	switch list := v.(type) {
	case []any:
		return slices.Clone(list)
	case []map[string]any:
		out := make([]any, 0, len(list))
		for _, m := range list {
			out = append(out, m)
		}
		return out
	default:
		return nil
	}
}
