package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"emotrace/internal/aggregate"
	"emotrace/internal/results"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse and prune the recorded run history",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsPruneCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var (
		limit    int
		statuses []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseStatuses(statuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *results.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit, filter...)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if runs == nil {
						runs = []*results.Run{}
					}
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Status", "Started", "Duration", "Records", "Frames", "Stage"},
					runRows(runs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Only list runs with these statuses (running, completed, failed, review)")
	return cmd
}

func parseStatuses(values []string) ([]results.Status, error) {
	out := make([]results.Status, 0, len(values))
	for _, v := range values {
		status := results.Status(strings.ToLower(strings.TrimSpace(v)))
		switch status {
		case results.StatusRunning, results.StatusCompleted, results.StatusFailed, results.StatusReview:
			out = append(out, status)
		default:
			return nil, fmt.Errorf("unknown run status %q", v)
		}
	}
	return out, nil
}

type runDetail struct {
	*results.Run
	Bins []aggregate.BinMetric `json:"bins,omitempty"`
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var showBins bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run by id or unique id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *results.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				detail := runDetail{Run: run}
				if showBins {
					detail.Bins, err = store.BinsForRun(cmd.Context(), run.ID)
					if err != nil {
						return err
					}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, detail)
				}
				printRunDetail(cmd, detail)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showBins, "bins", false, "Include the stored bin metrics")
	return cmd
}

func printRunDetail(cmd *cobra.Command, detail runDetail) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	run := detail.Run
	for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
		fmt.Fprintln(out, line)
	}

	statusMsg := string(run.Status)
	if run.ErrorMessage != "" {
		statusMsg += ": " + run.ErrorMessage
	}
	lines := []string{
		renderStatusLine("Status", runStatusKind(run.Status), statusMsg, colorize),
		renderStatusLine("Started", statusInfo, formatWhen(run.StartedAt), colorize),
		renderStatusLine("Duration", statusInfo, formatDuration(run.Duration()), colorize),
		renderStatusLine("Last stage", statusInfo, run.LastStage, colorize),
	}
	if run.ConfigPath != "" {
		lines = append(lines, renderStatusLine("Config", statusInfo, run.ConfigPath, colorize))
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out)
	c := run.Counts
	fmt.Fprint(out, renderTable([]string{"Count", "Value"}, [][]string{
		{"records", formatCount(c.Records)},
		{"duplicates", formatCount(c.Duplicates)},
		{"corrupted ids", formatCount(c.CorruptedIDs)},
		{"resolved ids", formatCount(c.ResolvedIDs)},
		{"unresolved ids", formatCount(c.UnresolvedIDs)},
		{"subjects removed", formatCount(c.SubjectsRemoved)},
		{"output frames", formatCount(c.OutputFrames)},
		{"bins", formatCount(c.Bins)},
	}, []columnAlignment{alignLeft, alignRight}))

	if len(run.Sources) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(run.Sources))
		for _, src := range run.Sources {
			rows = append(rows, []string{src})
		}
		fmt.Fprint(out, renderTable([]string{"Source"}, rows, nil))
	}

	if len(detail.Bins) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(detail.Bins))
		for _, b := range detail.Bins {
			rows = append(rows, []string{
				strconv.Itoa(b.VideoID),
				strconv.Itoa(b.Bin),
				formatCount(b.Samples),
				strconv.FormatFloat(b.Metric1, 'f', 3, 64),
				strconv.FormatFloat(b.Metric2, 'f', 3, 64),
				strconv.FormatFloat(b.Metric3, 'f', 3, 64),
			})
		}
		fmt.Fprint(out, renderTable(
			[]string{"Video", "Bin", "Samples", "Metric 1", "Metric 2", "Metric 3"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		))
	}
}

func newRunsPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs beyond the newest N",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("keep") {
				keep = cfg.Results.KeepRuns
			}
			if keep < 1 {
				return fmt.Errorf("--keep must be at least 1 (got %d)", keep)
			}
			return ctx.withStore(func(store *results.Store) error {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]int{"removed": removed, "keep": keep})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s runs (kept newest %d)\n", formatCount(removed), keep)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Number of newest runs to keep (defaults to results.keep_runs)")
	return cmd
}
