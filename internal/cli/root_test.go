package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/songlake/internal/config"
	"github.com/leapstack-labs/songlake/internal/testutil"
	"github.com/leapstack-labs/songlake/pkg/core"
)

// project writes a dataset and a songlake.yaml into a temp dir and moves there.
func project(t *testing.T, logData string) (testutil.Dataset, string) {
	t.Helper()
	dir := t.TempDir()
	ds := testutil.WriteDataset(t, dir)
	if logData == "" {
		logData = ds.LogData
	}
	output := filepath.Join(dir, "out")

	cfg := fmt.Sprintf(`
data_location: local
profiles:
  local:
    output_data: %q
    song_data: %q
    log_data: %q
pipeline:
  partitions: 2
state_path: %q
log:
  level: debug
  format: json
`, output, ds.SongData, logData, filepath.Join(dir, ".songlake", "state.db"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(cfg), 0o600))

	t.Chdir(dir)
	t.Setenv(config.ConfigEnvVar, "")
	t.Setenv(config.DataLocationEnvVar, "")
	return ds, dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_RunsPipeline(t *testing.T) {
	ds, dir := project(t, "")

	stdout, stderr, err := execute(t)
	require.NoError(t, err, stderr)

	for _, spec := range core.Tables {
		assert.Contains(t, stdout, spec.Name)
	}
	assert.Equal(t, len(core.Tables), strings.Count(stdout, string(core.TableRunStatusSuccess)))
	assert.Contains(t, stdout, fmt.Sprint(ds.Songplays))
	assert.Contains(t, strings.ToLower(stdout), string(core.RunStatusCompleted))

	// structured logs went to stderr as JSON
	assert.Contains(t, stderr, `"msg":"run completed"`)

	_, err = os.Stat(filepath.Join(dir, ".songlake", "state.db"))
	assert.NoError(t, err, "state directory is created")
	_, err = os.Stat(filepath.Join(dir, "out", "songplays", "data_0.parquet"))
	assert.NoError(t, err)
}

func TestRootCmd_FailureReturnsError(t *testing.T) {
	project(t, filepath.Join(t.TempDir(), "missing"))

	stdout, _, err := execute(t)
	require.Error(t, err)

	var storageErr *core.StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.Contains(t, stdout, string(core.TableRunStatusSkipped))
	assert.Contains(t, stdout, "error:")
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	_, _, err := execute(t, "extra")
	assert.Error(t, err)
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	project(t, "")
	t.Setenv("SONGLAKE_PIPELINE__USER_SOURCE", "everyone")

	_, _, err := execute(t)
	assert.ErrorContains(t, err, "invalid user_source")
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		want    string
		wantErr bool
	}{
		{name: "auto on a buffer is json", cfg: config.LogConfig{Level: "info", Format: "auto"}, want: `"msg":"hello"`},
		{name: "text", cfg: config.LogConfig{Level: "info", Format: "text"}, want: "msg=hello"},
		{name: "json", cfg: config.LogConfig{Level: "debug", Format: "JSON"}, want: `"level":"INFO"`},
		{name: "bad level", cfg: config.LogConfig{Level: "loud"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			logger.Info("hello")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, config.LogConfig{Level: "warn", Format: "text"})
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestRenderSummary(t *testing.T) {
	run := &core.Run{
		ID:     "0123456789abcdef",
		Status: core.RunStatusFailed,
		Error:  "table songs: boom",
		Tables: []*core.TableRun{
			{Table: core.TableSongs, Status: core.TableRunStatusFailed, ExecutionMS: 5},
			{Table: core.TableSongplays, Status: core.TableRunStatusSkipped},
			{Table: core.TableUsers, Status: core.TableRunStatusSuccess, Rows: 96, ExecutionMS: 7},
		},
	}

	var buf bytes.Buffer
	renderSummary(&buf, run)
	out := buf.String()

	assert.Contains(t, out, "96")
	assert.Contains(t, strings.ToLower(out), "run 01234567")
	assert.Contains(t, out, "error: table songs: boom")

	// rows follow pipeline order regardless of history order
	assert.Less(t, strings.Index(out, core.TableSongs), strings.Index(out, core.TableUsers))
	assert.Less(t, strings.Index(out, core.TableUsers), strings.Index(out, core.TableSongplays))
}
