package duckdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/songlake/pkg/adapter"
)

func TestClassifyError_FromEngine(t *testing.T) {
	adp := connect(t)
	missing := filepath.Join(t.TempDir(), "nope", "*.json")

	tests := []struct {
		name      string
		query     string
		wantKind  adapter.ErrorKind
		wantField string
	}{
		{
			name:      "missing column",
			query:     `SELECT song_id FROM (SELECT 1 AS title)`,
			wantKind:  adapter.ErrorSchema,
			wantField: "song_id",
		},
		{
			name:     "bad cast",
			query:    `SELECT CAST('abc' AS BIGINT)`,
			wantKind: adapter.ErrorSchema,
		},
		{
			name:     "no files",
			query:    `SELECT * FROM read_json_auto('` + missing + `')`,
			wantKind: adapter.ErrorStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := adp.Exec(context.Background(), tt.query)
			require.Error(t, err)

			kind, field := adp.ClassifyError(err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantField, field)
		})
	}
}

func TestClassifyError_Messages(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKind  adapter.ErrorKind
		wantField string
	}{
		{"nil", nil, adapter.ErrorUnknown, ""},
		{"unrelated", errors.New("boom"), adapter.ErrorUnknown, ""},
		{
			"binder text",
			errors.New(`failed to execute SQL: Binder Error: Referenced column "ts" not found in FROM clause!`),
			adapter.ErrorSchema, "ts",
		},
		{"io text", errors.New("IO Error: Cannot open file"), adapter.ErrorStorage, ""},
		{"http text", errors.New("HTTP Error: 403 Forbidden"), adapter.ErrorStorage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, field := classifyError(tt.err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantField, field)
		})
	}
}
