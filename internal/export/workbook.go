package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"emotrace/internal/aggregate"
	"emotrace/internal/fileutil"
	"emotrace/internal/filter"
)

const (
	SheetBins    = "bins"
	SheetRemoved = "subjects_removed"
	SheetSummary = "summary"
	chartAnchor  = "K2"
)

// Workbook bundles the tables written to the Excel export.
type Workbook struct {
	RunID   string
	Bins    aggregate.BinTable
	Removal filter.Removal
	Summary aggregate.Summary
}

// WriteWorkbook writes the bins, subjects_removed and summary sheets plus a
// line chart of the first metric per video.
func WriteWorkbook(path string, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, SheetBins); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetRemoved, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	if err := writeBinsSheet(f, wb.Bins); err != nil {
		return err
	}
	if err := writeRemovedSheet(f, wb.Removal); err != nil {
		return err
	}
	if err := writeSummarySheet(f, wb); err != nil {
		return err
	}

	if err := fileutil.WriteAtomic(path, func(w io.Writer) error { return f.Write(w) }); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

func writeBinsSheet(f *excelize.File, table aggregate.BinTable) error {
	header := make([]any, len(BinColumns))
	for i, c := range BinColumns {
		header[i] = c
	}
	if err := setRow(f, SheetBins, 1, header...); err != nil {
		return err
	}
	for i, c := range table.Cells {
		if err := setRow(f, SheetBins, i+2,
			c.VideoID, c.Bin, c.StartMS, c.EndMS, c.Samples, c.Metric1, c.Metric2, c.Metric3,
		); err != nil {
			return err
		}
	}
	if len(table.Cells) == 0 {
		return nil
	}

	var series []excelize.ChartSeries
	row := 2
	for _, id := range table.VideoIDs() {
		n := len(table.Video(id))
		series = append(series, excelize.ChartSeries{
			Name:       "Video " + strconv.Itoa(id),
			Categories: fmt.Sprintf("%s!$B$%d:$B$%d", SheetBins, row, row+n-1),
			Values:     fmt.Sprintf("%s!$F$%d:$F$%d", SheetBins, row, row+n-1),
		})
		row += n
	}
	chart := &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: "metric_1 mean per time bin"}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Time bin"}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Mean"}}, MajorGridLines: true},
	}
	if err := f.AddChart(SheetBins, chartAnchor, chart); err != nil {
		return fmt.Errorf("add chart: %w", err)
	}
	return nil
}

func writeRemovedSheet(f *excelize.File, rep filter.Removal) error {
	if err := setRow(f, SheetRemoved, 1, "video_id", "before", "after", "removed_percent"); err != nil {
		return err
	}
	row := 2
	for _, v := range rep.Videos {
		if err := setRow(f, SheetRemoved, row, v.VideoID, v.Before, v.After, v.RemovedPercent); err != nil {
			return err
		}
		row++
	}
	if err := setRow(f, SheetRemoved, row, "total", rep.Before, rep.After, rep.RemovedPercent); err != nil {
		return err
	}
	row += 2
	if err := setRow(f, SheetRemoved, row, "threshold", rep.Threshold); err != nil {
		return err
	}
	return nil
}

func writeSummarySheet(f *excelize.File, wb Workbook) error {
	s := wb.Summary
	rows := [][]any{
		{"run_id", wb.RunID},
		{"frames", s.Frames},
		{},
		{"video_id", "frames", "subjects", "min_ms", "max_ms"},
	}
	for _, v := range s.Videos {
		rows = append(rows, []any{v.VideoID, v.Frames, v.Subjects, v.MinMS, v.MaxMS})
	}
	rows = append(rows, []any{})
	rows = append(rows, []any{"statistic", "count", "mean", "std", "min", "25%", "50%", "75%", "max"})
	for _, d := range []struct {
		name string
		d    aggregate.Describe
	}{
		{"time_diff", s.TimeDiff},
		{"frames_per_subject", s.FramesPerSub},
	} {
		rows = append(rows, []any{d.name, d.d.Count, d.d.Mean, d.d.Std, d.d.Min, d.d.Q25, d.d.Q50, d.d.Q75, d.d.Max})
	}
	rows = append(rows, []any{})
	rows = append(rows, []any{"emotion_count", "positive_%", "negative_%", "total_%"})
	for n := range s.Total {
		rows = append(rows, []any{n, at(s.Positive, n), at(s.Negative, n), s.Total[n]})
	}

	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		if err := setRow(f, SheetSummary, i+1, r...); err != nil {
			return err
		}
	}
	return nil
}

// at returns dist[i] or an empty cell when the distribution is shorter.
func at(dist []float64, i int) any {
	if i < len(dist) {
		return dist[i]
	}
	return ""
}
