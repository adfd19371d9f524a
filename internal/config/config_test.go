package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"emotrace/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvDataDir, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "emotrace")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) || !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute data/output dirs, got %q %q", cfg.Paths.DataDir, cfg.Paths.OutputDir)
	}
	if cfg.Ingest.Sentinel != "No value" {
		t.Fatalf("unexpected sentinel: %q", cfg.Ingest.Sentinel)
	}
	if cfg.Filter.MissingEmotionThreshold != 30 {
		t.Fatalf("unexpected threshold: %v", cfg.Filter.MissingEmotionThreshold)
	}
	if cfg.Binning.BinCount != 53 {
		t.Fatalf("unexpected bin count: %d", cfg.Binning.BinCount)
	}
	if cfg.Repair.MaxRounds != 1 {
		t.Fatalf("unexpected repair rounds: %d", cfg.Repair.MaxRounds)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadUsesEnvDataDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dataDir := t.TempDir()
	t.Setenv(config.EnvDataDir, dataDir)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataDir != dataDir {
		t.Fatalf("expected data dir from env, got %q", cfg.Paths.DataDir)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvDataDir, "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
data_dir = "~/sensor"
state_dir = "~/state"

[ingest]
file_pattern = "session_{video}.csv"
video_ids = [3, 1, 3, 2]
sentinel = "n/a"

[filter]
missing_emotion_threshold = 12.5

[binning]
bin_count = 10

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "sensor") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if got := cfg.Ingest.VideoIDs; len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("expected sorted unique video ids, got %v", got)
	}
	if cfg.Ingest.Sentinel != "n/a" {
		t.Fatalf("unexpected sentinel: %q", cfg.Ingest.Sentinel)
	}
	if cfg.Filter.MissingEmotionThreshold != 12.5 || cfg.Binning.BinCount != 10 {
		t.Fatalf("unexpected filter/binning: %+v %+v", cfg.Filter, cfg.Binning)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging values, got %+v", cfg.Logging)
	}

	files := cfg.SourceFiles()
	want := filepath.Join(tempHome, "sensor", "session_2.csv")
	if len(files) != 3 || files[1] != want {
		t.Fatalf("unexpected source files: %v", files)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[filter]\nthreshold = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*config.Config) {}},
		{
			name:    "threshold above 100",
			mutate:  func(c *config.Config) { c.Filter.MissingEmotionThreshold = 101 },
			wantErr: "missing_emotion_threshold",
		},
		{
			name:    "zero bins",
			mutate:  func(c *config.Config) { c.Binning.BinCount = 0 },
			wantErr: "bin_count",
		},
		{
			name:    "pattern without placeholder",
			mutate:  func(c *config.Config) { c.Ingest.FilePattern = "all.csv" },
			wantErr: "file_pattern",
		},
		{
			name:    "chart size",
			mutate:  func(c *config.Config) { c.Charts.WidthCM = 0 },
			wantErr: "width_cm",
		},
		{
			name: "chart size ignored when disabled",
			mutate: func(c *config.Config) {
				c.Charts.Enabled = false
				c.Charts.WidthCM = 0
			},
		},
		{
			name:    "repair rounds",
			mutate:  func(c *config.Config) { c.Repair.MaxRounds = 0 },
			wantErr: "max_rounds",
		},
		{
			name:    "log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSampleConfigDecodesAndValidates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if decoded.Binning.BinCount != config.Default().Binning.BinCount {
		t.Fatalf("sample bin count %d differs from default", decoded.Binning.BinCount)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("Load(sample) returned error: %v", err)
	}
}

func TestEncodeRoundTripsThroughLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	cfg.Filter.MissingEmotionThreshold = 25
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	loaded, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Filter.MissingEmotionThreshold != 25 {
		t.Fatalf("threshold lost in round trip: %v", loaded.Filter.MissingEmotionThreshold)
	}
}
