package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/songlake/internal/transform"
)

// Validate checks the configuration for values the pipeline cannot run with.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if p, err := c.Active(); err != nil {
		errs = append(errs, err)
	} else {
		if p.OutputData == "" {
			errs = append(errs, fmt.Errorf("profiles.%s.output_data is required", c.DataLocation))
		}
		if p.SongData == "" {
			errs = append(errs, fmt.Errorf("profiles.%s.song_data is required", c.DataLocation))
		}
		if p.LogData == "" {
			errs = append(errs, fmt.Errorf("profiles.%s.log_data is required", c.DataLocation))
		}
	}

	if _, err := c.PipelineOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, err := transform.PredicateByName(c.Pipeline.JoinPredicate); err != nil {
		errs = append(errs, err)
	}
	if c.Pipeline.Partitions < 0 {
		errs = append(errs, fmt.Errorf("pipeline.partitions must be >= 0, got %d", c.Pipeline.Partitions))
	}

	if c.Engine.Type == "" {
		errs = append(errs, errors.New("engine.type is required"))
	}
	if c.StatePath == "" {
		errs = append(errs, errors.New("state_path is required"))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains([]string{LogFormatAuto, LogFormatText, LogFormatJSON}, strings.ToLower(c.Log.Format)) {
		errs = append(errs, fmt.Errorf("invalid log format %q (want auto, text or json)", c.Log.Format))
	}

	return errors.Join(errs...)
}

func (c *Config) profileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
