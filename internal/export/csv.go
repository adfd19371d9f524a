package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"emotrace/internal/aggregate"
	"emotrace/internal/fileutil"
	"emotrace/internal/frames"
)

// BinColumns is the header written by WriteBinsCSV.
var BinColumns = []string{"video_id", "time_bin", "start_ms", "end_ms", "samples", "metric_1_avg", "metric_2_avg", "metric_3_avg"}

// WriteFramesCSV writes frames in canonical column order. Corrupted cells are
// written as sentinel.
func WriteFramesCSV(path string, src []frames.Frame, sentinel string) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(frames.Columns); err != nil {
			return err
		}
		for _, f := range src {
			if err := cw.Write(f.Record(sentinel)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// WriteBinsCSV writes one row per populated (video, bin) cell.
func WriteBinsCSV(path string, table aggregate.BinTable) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(BinColumns); err != nil {
			return err
		}
		for _, c := range table.Cells {
			row := []string{
				strconv.Itoa(c.VideoID),
				strconv.Itoa(c.Bin),
				formatFloat(c.StartMS),
				formatFloat(c.EndMS),
				strconv.Itoa(c.Samples),
				formatFloat(c.Metric1),
				formatFloat(c.Metric2),
				formatFloat(c.Metric3),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
