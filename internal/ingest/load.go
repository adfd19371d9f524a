package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"emotrace/internal/frames"
	"emotrace/internal/logging"
)

// FileSummary describes one loaded source file.
type FileSummary struct {
	Path       string     `json:"path"`
	Read       ReadStats  `json:"read"`
	Duplicates DedupStats `json:"duplicates"`
	Kept       int        `json:"kept"`
}

// Dataset is the concatenation of every loaded file in source order.
type Dataset struct {
	Frames []frames.Frame
	Files  []FileSummary
}

// Rows returns the number of rows read before deduplication.
func (d Dataset) Rows() int {
	n := 0
	for _, f := range d.Files {
		n += f.Read.Rows
	}
	return n
}

// Loader reads and deduplicates source files.
type Loader struct {
	logger *slog.Logger
	opts   Options
}

// NewLoader constructs a loader. A nil logger discards diagnostics.
func NewLoader(logger *slog.Logger, opts Options) *Loader {
	return &Loader{logger: logging.NewComponentLogger(logger, "ingest"), opts: opts}
}

// Load reads every path, deduplicates each file independently and
// concatenates the results in the order given.
func (l *Loader) Load(ctx context.Context, paths []string) (Dataset, error) {
	logger := logging.WithContext(ctx, l.logger)
	var ds Dataset
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		records, read, err := ReadFile(path, l.opts)
		if err != nil {
			return Dataset{}, err
		}
		kept, dup := Dedup(records)
		summary := FileSummary{Path: path, Read: read, Duplicates: dup, Kept: len(kept)}
		ds.Files = append(ds.Files, summary)
		ds.Frames = append(ds.Frames, kept...)

		logger.Info("source loaded",
			logging.Args(
				logging.String(logging.FieldEventType, "source_loaded"),
				logging.String("file", filepath.Base(path)),
				logging.String("rows", humanize.Comma(int64(read.Rows))),
				logging.String("duplicates", fmt.Sprintf("%s (%s)", humanize.Comma(int64(dup.Total())), percent(dup.Total(), read.Rows))),
				logging.String("corrupted_ids", humanize.Comma(int64(read.CorruptedIDs))),
			)...,
		)
		if read.SplitIDs > 0 {
			logging.WarnWithContext(logger, "only one id cell carried the sentinel", "split_id_corruption",
				logging.String("file", filepath.Base(path)),
				logging.Int("rows", read.SplitIDs),
				logging.String(logging.FieldImpact, "both ids of the affected rows are treated as corrupted"),
				logging.String(logging.FieldErrorHint, "inspect the source file for partially written rows"),
			)
		}
	}

	logger.Info("sources combined",
		logging.Args(
			logging.String(logging.FieldEventType, "sources_combined"),
			logging.Int("files", len(ds.Files)),
			logging.String("records", humanize.Comma(int64(len(ds.Frames)))),
			logging.String("corrupted_ids", humanize.Comma(int64(frames.CountCorrupted(ds.Frames)))),
		)...,
	)
	return ds, nil
}

func percent(part, whole int) string {
	if whole == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
}
