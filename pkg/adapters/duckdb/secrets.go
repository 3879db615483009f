package duckdb

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/songlake/pkg/adapter"
)

// buildCreateSecretSQL renders an unnamed CREATE SECRET statement.
// Only non-empty fields are emitted, in a fixed order.
func buildCreateSecretSQL(cfg SecretConfig) string {
	parts := []string{"TYPE " + cfg.Type}
	if cfg.Provider != "" {
		parts = append(parts, "PROVIDER "+cfg.Provider)
	}
	if cfg.Region != "" {
		parts = append(parts, "REGION "+adapter.QuoteString(cfg.Region))
	}
	if scope := scopeSQL(cfg.Scope); scope != "" {
		parts = append(parts, "SCOPE "+scope)
	}
	if cfg.KeyID != "" {
		parts = append(parts, "KEY_ID "+adapter.QuoteString(cfg.KeyID))
	}
	if cfg.Secret != "" {
		parts = append(parts, "SECRET "+adapter.QuoteString(cfg.Secret))
	}
	if cfg.SessionToken != "" {
		parts = append(parts, "SESSION_TOKEN "+adapter.QuoteString(cfg.SessionToken))
	}
	if cfg.Endpoint != "" {
		parts = append(parts, "ENDPOINT "+adapter.QuoteString(cfg.Endpoint))
	}
	if cfg.URLStyle != "" {
		parts = append(parts, "URL_STYLE "+adapter.QuoteString(cfg.URLStyle))
	}
	if cfg.UseSSL != nil {
		parts = append(parts, fmt.Sprintf("USE_SSL %t", *cfg.UseSSL))
	}
	return "CREATE SECRET (\n    " + strings.Join(parts, ",\n    ") + "\n)"
}

func scopeSQL(scope any) string {
	switch v := scope.(type) {
	case string:
		if v == "" {
			return ""
		}
		return adapter.QuoteString(v)
	case []string:
		return scopeList(v)
	case []any:
		list := make([]string, 0, len(v))
		for _, s := range v {
			list = append(list, fmt.Sprint(s))
		}
		return scopeList(list)
	default:
		return ""
	}
}

func scopeList(list []string) string {
	switch len(list) {
	case 0:
		return ""
	case 1:
		return adapter.QuoteString(list[0])
	}
	quoted := make([]string, len(list))
	for i, s := range list {
		quoted[i] = adapter.QuoteString(s)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
