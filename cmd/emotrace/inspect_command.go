package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"emotrace/internal/ingest"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [files...]",
		Short: "List the non-numeric values found in each source column",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			paths := args
			if len(paths) == 0 {
				paths = cfg.SourceFiles()
			}

			reports := make([]ingest.Inspection, 0, len(paths))
			for _, path := range paths {
				report, err := ingest.Inspect(path)
				if err != nil {
					return err
				}
				reports = append(reports, report)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, reports)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for i, report := range reports {
				if i > 0 {
					fmt.Fprintln(out)
				}
				for _, line := range renderSectionHeader(report.Path, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Rows", statusInfo, formatCount(report.Rows), colorize))
				rows := make([][]string, 0, len(report.Columns))
				for _, col := range report.Columns {
					if col.Count == 0 {
						continue
					}
					rows = append(rows, []string{col.Column, quoteValues(col.Values), formatCount(col.Count), formatPercent(col.Share)})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, renderStatusLine("Columns", statusOK, "all values numeric", colorize))
					continue
				}
				fmt.Fprint(out, renderTable(
					[]string{"Column", "Values", "Rows", "Share"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
				))
			}
			return nil
		},
	}
}

func quoteValues(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
