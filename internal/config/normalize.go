package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// EnvDataDir overrides paths.data_dir when the config leaves it unset.
const EnvDataDir = "EMOTRACE_DATA_DIR"

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" || c.Paths.DataDir == defaultDataDir {
		if value, ok := os.LookupEnv(EnvDataDir); ok && strings.TrimSpace(value) != "" {
			c.Paths.DataDir = value
		}
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}

	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeIngest() {
	c.Ingest.FilePattern = strings.TrimSpace(c.Ingest.FilePattern)
	if c.Ingest.FilePattern == "" {
		c.Ingest.FilePattern = defaultFilePattern
	}
	if strings.TrimSpace(c.Ingest.Sentinel) == "" {
		c.Ingest.Sentinel = defaultSentinel
	}
	ids := slices.Clone(c.Ingest.VideoIDs)
	slices.Sort(ids)
	c.Ingest.VideoIDs = slices.Compact(ids)
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
