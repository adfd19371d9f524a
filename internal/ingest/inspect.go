package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// ColumnReport lists the non-numeric values found in one column.
type ColumnReport struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
	Count  int      `json:"count"`
	Share  float64  `json:"share"`
}

// Inspection summarizes a raw file without interpreting sentinels.
type Inspection struct {
	Path    string         `json:"path"`
	Rows    int            `json:"rows"`
	Columns []ColumnReport `json:"columns"`
}

// Inspect scans a file and reports, per column, every distinct value that
// does not parse as a number together with the share of rows holding one.
func Inspect(path string) (Inspection, error) {
	file, err := os.Open(path)
	if err != nil {
		return Inspection{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return Inspection{Path: path}, nil
	}
	if err != nil {
		return Inspection{}, fmt.Errorf("%s: read header: %w", path, err)
	}

	counts := make([]int, len(header))
	values := make([]map[string]struct{}, len(header))
	for i := range values {
		values[i] = make(map[string]struct{})
	}

	out := Inspection{Path: path}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Inspection{}, fmt.Errorf("%s: %w", path, err)
		}
		out.Rows++
		for i := range header {
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				continue
			}
			counts[i]++
			values[i][value] = struct{}{}
		}
	}

	for i, name := range header {
		report := ColumnReport{Column: strings.TrimSpace(name), Count: counts[i]}
		for v := range values[i] {
			report.Values = append(report.Values, v)
		}
		slices.Sort(report.Values)
		if out.Rows > 0 {
			report.Share = float64(counts[i]) / float64(out.Rows) * 100
		}
		out.Columns = append(out.Columns, report)
	}
	return out, nil
}
