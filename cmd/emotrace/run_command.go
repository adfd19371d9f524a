package main

import (
	"github.com/spf13/cobra"

	"emotrace/internal/config"
	"emotrace/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		threshold float64
		bins      int
		noCharts  bool
	)

	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Run the full repair, filter and aggregation pipeline",
		Long: `Run loads the per-video sensor logs, repairs corrupted subject ids,
removes subjects with too many missing emotion readings, bins the emotion
metrics over time and writes charts and exports to paths.output_dir.

Files default to ingest.file_pattern expanded for every ingest.video_ids entry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, ctx, pipeline.ModeFull, args, func(cfg *config.Config) {
				if cmd.Flags().Changed("threshold") {
					cfg.Filter.MissingEmotionThreshold = threshold
				}
				if cmd.Flags().Changed("bins") {
					cfg.Binning.BinCount = bins
				}
				if noCharts {
					cfg.Charts.Enabled = false
				}
			})
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Override filter.missing_emotion_threshold (percent)")
	cmd.Flags().IntVar(&bins, "bins", 0, "Override binning.bin_count")
	cmd.Flags().BoolVar(&noCharts, "no-charts", false, "Skip chart rendering")
	return cmd
}

func newRepairCommand(ctx *commandContext) *cobra.Command {
	var maxRounds int

	cmd := &cobra.Command{
		Use:   "repair [files...]",
		Short: "Repair corrupted subject ids and export the repaired frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, ctx, pipeline.ModeRepair, args, func(cfg *config.Config) {
				if cmd.Flags().Changed("max-rounds") {
					cfg.Repair.MaxRounds = maxRounds
				}
			})
		},
	}

	cmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "Override repair.max_rounds")
	return cmd
}

func executeRun(cmd *cobra.Command, ctx *commandContext, mode pipeline.Mode, sources []string, override func(*config.Config)) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	store, err := ctx.openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	p := pipeline.New(cfg, logger, store)
	if ctx.configExists {
		p.SetConfigPath(ctx.configPath)
	}
	report, runErr := p.Run(cmd.Context(), pipeline.Options{Sources: sources, Mode: mode})
	if report != nil {
		if ctx.jsonOutput() {
			if err := writeJSON(cmd, report); err != nil {
				return err
			}
		} else {
			printReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
		}
	}
	return runErr
}
