package config

const (
	defaultConfigPath              = "~/.config/emotrace/config.toml"
	defaultDataDir                 = "data"
	defaultOutputDir               = "output"
	defaultStateDir                = "~/.local/share/emotrace"
	defaultFilePattern             = "video_{video}.csv"
	defaultSentinel                = "No value"
	defaultRepairRounds            = 1
	defaultMissingEmotionThreshold = 30
	defaultBinCount                = 53
	defaultChartWidthCM            = 16
	defaultChartHeightCM           = 10
	defaultKeepRuns                = 50
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

var defaultVideoIDs = []int{1, 2, 3}

// Default returns a Config populated with repository defaults.
func Default() Config {
	videos := make([]int, len(defaultVideoIDs))
	copy(videos, defaultVideoIDs)
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		Ingest: Ingest{
			FilePattern: defaultFilePattern,
			VideoIDs:    videos,
			Sentinel:    defaultSentinel,
		},
		Repair: Repair{
			MaxRounds: defaultRepairRounds,
		},
		Filter: Filter{
			MissingEmotionThreshold: defaultMissingEmotionThreshold,
		},
		Binning: Binning{
			BinCount: defaultBinCount,
		},
		Charts: Charts{
			Enabled:  true,
			WidthCM:  defaultChartWidthCM,
			HeightCM: defaultChartHeightCM,
		},
		Export: Export{
			CSV:      true,
			Workbook: true,
		},
		Results: Results{
			Enabled:  true,
			KeepRuns: defaultKeepRuns,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
