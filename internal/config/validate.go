package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateRepair(); err != nil {
		return err
	}
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateBinning(); err != nil {
		return err
	}
	if err := c.validateCharts(); err != nil {
		return err
	}
	if err := c.validateResults(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateIngest() error {
	if len(c.Ingest.VideoIDs) > 1 && !strings.Contains(c.Ingest.FilePattern, VideoPlaceholder) {
		return fmt.Errorf("ingest.file_pattern must contain %s when more than one video id is configured", VideoPlaceholder)
	}
	for _, id := range c.Ingest.VideoIDs {
		if id < 0 {
			return fmt.Errorf("ingest.video_ids: negative id %d", id)
		}
	}
	return nil
}

func (c *Config) validateRepair() error {
	if c.Repair.MaxRounds < 1 {
		return errors.New("repair.max_rounds must be at least 1")
	}
	return nil
}

func (c *Config) validateFilter() error {
	if c.Filter.MissingEmotionThreshold < 0 || c.Filter.MissingEmotionThreshold > 100 {
		return errors.New("filter.missing_emotion_threshold must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateBinning() error {
	if c.Binning.BinCount < 1 {
		return errors.New("binning.bin_count must be positive")
	}
	return nil
}

func (c *Config) validateCharts() error {
	if !c.Charts.Enabled {
		return nil
	}
	if c.Charts.WidthCM <= 0 || c.Charts.HeightCM <= 0 {
		return errors.New("charts.width_cm and charts.height_cm must be positive")
	}
	return nil
}

func (c *Config) validateResults() error {
	if c.Results.KeepRuns < 0 {
		return errors.New("results.keep_runs must be zero (keep all) or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
