package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"emotrace/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// VideoPlaceholder is replaced by a video id in ingest.file_pattern.
const VideoPlaceholder = "{video}"

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
}

// Ingest controls how per-video sensor logs are located and parsed.
type Ingest struct {
	FilePattern string `toml:"file_pattern"`
	VideoIDs    []int  `toml:"video_ids"`
	Sentinel    string `toml:"sentinel"`
}

// Repair tunes the identifier repair engine.
type Repair struct {
	MaxRounds int `toml:"max_rounds"`
}

// Filter contains subject filtering thresholds.
type Filter struct {
	// MissingEmotionThreshold is a percentage; subjects whose share of frames
	// with a missing emotion reading is strictly above it are removed.
	MissingEmotionThreshold float64 `toml:"missing_emotion_threshold"`
}

// Binning controls time binning of aggregate metrics.
type Binning struct {
	BinCount int `toml:"bin_count"`
}

// Charts contains chart rendering configuration.
type Charts struct {
	Enabled  bool    `toml:"enabled"`
	WidthCM  float64 `toml:"width_cm"`
	HeightCM float64 `toml:"height_cm"`
}

// Export selects which output files are written.
type Export struct {
	CSV      bool `toml:"csv"`
	Workbook bool `toml:"workbook"`
}

// Results contains configuration for the run history store.
type Results struct {
	Enabled  bool `toml:"enabled"`
	KeepRuns int  `toml:"keep_runs"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for emotrace.
//
// Configuration sections by subsystem:
//   - Paths: input data, output and state directories
//   - Ingest: source file discovery and the corruption sentinel
//   - Repair: identifier repair rounds
//   - Filter: subject removal threshold
//   - Binning: number of time bins
//   - Charts: PNG chart rendering
//   - Export: CSV and workbook outputs
//   - Results: sqlite run history
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Ingest  Ingest  `toml:"ingest"`
	Repair  Repair  `toml:"repair"`
	Filter  Filter  `toml:"filter"`
	Binning Binning `toml:"binning"`
	Charts  Charts  `toml:"charts"`
	Export  Export  `toml:"export"`
	Results Results `toml:"results"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("emotrace.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SourceFiles resolves one input path per configured video id.
func (c *Config) SourceFiles() []string {
	out := make([]string, 0, len(c.Ingest.VideoIDs))
	for _, id := range c.Ingest.VideoIDs {
		name := strings.ReplaceAll(c.Ingest.FilePattern, VideoPlaceholder, strconv.Itoa(id))
		if !filepath.IsAbs(name) {
			name = filepath.Join(c.Paths.DataDir, name)
		}
		out = append(out, name)
	}
	return out
}

// ResultsPath returns the sqlite database location.
func (c *Config) ResultsPath() string {
	return filepath.Join(c.Paths.StateDir, "results.db")
}

// LockPath returns the single-run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "emotrace.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig)); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
