package testsupport

import (
	"path/filepath"
	"testing"

	"emotrace/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Charts are disabled by default to keep tests fast; use WithCharts to enable.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Charts.Enabled = false
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithVideos sets the configured video ids.
func WithVideos(ids ...int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ingest.VideoIDs = ids
	}
}

// WithThreshold overrides the missing emotion threshold.
func WithThreshold(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Filter.MissingEmotionThreshold = threshold
	}
}

// WithBins overrides the bin count.
func WithBins(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Binning.BinCount = n
	}
}

// WithCharts enables chart rendering.
func WithCharts() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Charts.Enabled = true
	}
}

// WithoutResults disables the run history store.
func WithoutResults() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Results.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
