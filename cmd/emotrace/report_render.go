package main

import (
	"fmt"
	"io"
	"strconv"

	"emotrace/internal/pipeline"
	"emotrace/internal/repair"
	"emotrace/internal/results"
)

// maxRepairRunRows caps the repair run table in terminal output.
const maxRepairRunRows = 20

func printReport(out io.Writer, report *pipeline.Report, colorize bool) {
	for _, line := range renderSectionHeader("Run "+shortRunID(report.RunID), colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range reportLines(report, colorize) {
		fmt.Fprintln(out, line)
	}

	if len(report.Stages) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, renderTable(
			[]string{"Stage", "Duration", "Note"},
			stageRows(report),
			[]columnAlignment{alignLeft, alignRight, alignLeft},
		))
	}

	if report.Mode == pipeline.ModeRepair && len(report.RepairRuns) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, renderTable(
			[]string{"Index", "Length", "Forward", "Backward", "Unresolved", "Outcome"},
			repairRunRows(report.RepairRuns),
			[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
		))
		if hidden := len(report.RepairRuns) - maxRepairRunRows; hidden > 0 {
			fmt.Fprintf(out, "%s+ %d more corrupted runs (use --json for all)\n", statusIndent, hidden)
		}
	}

	if report.Filter != nil && len(report.Filter.Removal.Videos) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(report.Filter.Removal.Videos)+1)
		for _, v := range report.Filter.Removal.Videos {
			rows = append(rows, []string{
				strconv.Itoa(v.VideoID), formatCount(v.Before), formatCount(v.After), formatPercent(v.RemovedPercent),
			})
		}
		rm := report.Filter.Removal
		rows = append(rows, []string{"total", formatCount(rm.Before), formatCount(rm.After), formatPercent(rm.RemovedPercent)})
		fmt.Fprint(out, renderTable(
			[]string{"Video", "Subjects before", "Subjects after", "Removed"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
		))
	}

	if len(report.Outputs) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(report.Outputs))
		for _, path := range report.Outputs {
			rows = append(rows, []string{path, formatFileSize(path)})
		}
		fmt.Fprint(out, renderTable([]string{"Output", "Size"}, rows, []columnAlignment{alignLeft, alignRight}))
	}
}

func reportLines(report *pipeline.Report, colorize bool) []string {
	counts := report.Counts
	statusMsg := string(report.Status)
	if report.FailedAt != "" {
		statusMsg = fmt.Sprintf("%s at %s: %s", report.Status, report.FailedAt, report.Error)
	}
	lines := []string{
		renderStatusLine("Status", runStatusKind(report.Status), statusMsg, colorize),
		renderStatusLine("Sources", statusInfo,
			fmt.Sprintf("%d files, %s records", len(report.Sources), formatCount(counts.Records)), colorize),
		renderStatusLine("Duplicates", statusInfo, formatShare(counts.Duplicates, counts.Records), colorize),
	}

	idKind := statusOK
	if counts.UnresolvedIDs > 0 {
		idKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Corrupted ids", idKind,
		fmt.Sprintf("%s (resolved %s, unresolved %s)",
			formatCount(counts.CorruptedIDs), formatCount(counts.ResolvedIDs), formatCount(counts.UnresolvedIDs)),
		colorize))

	if report.Filter != nil {
		kind := statusOK
		if counts.SubjectsRemoved > 0 {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine("Subjects removed", kind,
			fmt.Sprintf("%d above %s missing emotions", counts.SubjectsRemoved, formatPercent(report.Filter.Removal.Threshold)),
			colorize))
	}
	lines = append(lines, renderStatusLine("Output frames", statusInfo, formatCount(counts.OutputFrames), colorize))
	if report.Bins != nil {
		lines = append(lines, renderStatusLine("Bins", statusInfo,
			fmt.Sprintf("%d bins, %d populated cells", report.Bins.Count, counts.Bins), colorize))
	}
	return lines
}

func stageRows(report *pipeline.Report) [][]string {
	rows := make([][]string, 0, len(report.Stages)+1)
	for _, s := range report.Stages {
		note := ""
		if s.Skipped {
			note = "skipped"
		}
		rows = append(rows, []string{s.Name, formatDuration(s.Duration), note})
	}
	if report.FailedAt != "" {
		rows = append(rows, []string{report.FailedAt, "-", string(report.Status)})
	}
	return rows
}

func repairRunRows(runs []repair.RunOutcome) [][]string {
	limit := min(len(runs), maxRepairRunRows)
	rows := make([][]string, 0, limit)
	for _, r := range runs[:limit] {
		rows = append(rows, []string{
			strconv.Itoa(r.Start),
			strconv.Itoa(r.Length),
			strconv.Itoa(r.ForwardResolved),
			strconv.Itoa(r.BackwardResolved),
			strconv.Itoa(r.Unresolved),
			r.Status(),
		})
	}
	return rows
}

func runRows(runs []*results.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			shortRunID(r.ID),
			string(r.Status),
			formatWhen(r.StartedAt),
			formatDuration(r.Duration()),
			formatCount(r.Counts.Records),
			formatCount(r.Counts.OutputFrames),
			r.LastStage,
		})
	}
	return rows
}
