package ingest_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"emotrace/internal/frames"
	"emotrace/internal/ingest"
	"emotrace/internal/testsupport"
)

func TestReadParsesHeaderByName(t *testing.T) {
	input := strings.Join([]string{
		",negative_3,negative_2,negative_1,positive_2,positive_1,millisecond_from_start,frame_no,subject_id,video_id",
		"0,1,0,0,0,1,120,3,7,2",
		"1,No value,0,1,0,0,160,4,No value,No value",
	}, "\n")

	got, stats, err := ingest.Read(strings.NewReader(input), ingest.Options{})
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(got) != 2 || stats.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d (stats %+v)", len(got), stats)
	}
	first := got[0]
	if first.VideoID != 2 || first.SubjectID != 7 || first.FrameNo != 3 || first.MillisecondFromStart != 120 {
		t.Fatalf("unexpected first frame: %+v", first)
	}
	if first.Emotions[frames.Positive1] != frames.Present || first.Emotions[frames.Negative3] != frames.Present {
		t.Fatalf("unexpected emotions: %v", first.Emotions)
	}
	second := got[1]
	if !second.IDCorrupted {
		t.Fatal("expected sentinel ids to be corrupted")
	}
	if second.Emotions[frames.Negative3] != frames.Missing || second.Emotions[frames.Negative1] != frames.Present {
		t.Fatalf("unexpected emotions: %v", second.Emotions)
	}
	if stats.CorruptedIDs != 1 || stats.MissingEmotions != 1 || stats.SplitIDs != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestReadTreatsSplitIDCorruptionAsJoint(t *testing.T) {
	row := testsupport.Row(1, 5, 10, 400)
	row[1] = ""
	path := filepath.Join(t.TempDir(), "split.csv")
	testsupport.WriteCSV(t, path, [][]string{row})

	got, stats, err := ingest.ReadFile(path, ingest.Options{})
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if !got[0].IDCorrupted || got[0].VideoID != 0 {
		t.Fatalf("expected both ids corrupted, got %+v", got[0])
	}
	if stats.SplitIDs != 1 {
		t.Fatalf("expected split id count, got %+v", stats)
	}
}

func TestReadHonoursCustomSentinel(t *testing.T) {
	input := strings.Join(frames.Columns, ",") + "\nn/a,n/a,1,40,0,n/a,0,0,0\n"
	got, _, err := ingest.Read(strings.NewReader(input), ingest.Options{Sentinel: "n/a"})
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !got[0].IDCorrupted || got[0].Emotions[frames.Positive2] != frames.Missing {
		t.Fatalf("custom sentinel not applied: %+v", got[0])
	}
}

func TestReadAcceptsIntegralFloats(t *testing.T) {
	input := strings.Join(frames.Columns, ",") + "\n1.0,2.0,3.0,120.0,1.0,0.0,0,0,0\n"
	got, _, err := ingest.Read(strings.NewReader(input), ingest.Options{})
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if got[0].VideoID != 1 || got[0].FrameNo != 3 || got[0].Emotions[frames.Positive1] != frames.Present {
		t.Fatalf("unexpected frame: %+v", got[0])
	}
}

func TestReadReportsMalformedRowsWithLine(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{name: "frame", row: "1,2,abc,40,0,0,0,0,0"},
		{name: "ms", row: "1,2,3,4.5,0,0,0,0,0"},
		{name: "reading", row: "1,2,3,40,2,0,0,0,0"},
		{name: "id", row: "1,x,3,40,0,0,0,0,0"},
		{name: "frame overflow", row: "1,2,1e30,40,0,0,0,0,0"},
		{name: "ms underflow", row: "1,2,3,-1e19,0,0,0,0,0"},
		{name: "id overflow", row: "9.3e18,2,3,40,0,0,0,0,0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := strings.Join(frames.Columns, ",") + "\n1,2,1,40,0,0,0,0,0\n" + tc.row + "\n"
			_, _, err := ingest.Read(strings.NewReader(input), ingest.Options{})
			if !errors.Is(err, ingest.ErrMalformedRow) {
				t.Fatalf("expected ErrMalformedRow, got %v", err)
			}
			if !strings.Contains(err.Error(), "line 3") {
				t.Fatalf("expected line number in error, got %v", err)
			}
		})
	}
}

func TestReadRejectsMissingColumns(t *testing.T) {
	_, _, err := ingest.Read(strings.NewReader("video_id,subject_id,frame_no\n1,2,3\n"), ingest.Options{})
	if !errors.Is(err, ingest.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), "millisecond_from_start") {
		t.Fatalf("expected missing column names in error, got %v", err)
	}
}

func TestDedupAppliesBothKeysInOrder(t *testing.T) {
	a := frames.Frame{VideoID: 1, SubjectID: 1, FrameNo: 1, MillisecondFromStart: 40}
	b := frames.Frame{VideoID: 1, SubjectID: 1, FrameNo: 2, MillisecondFromStart: 80}
	sameInstant := b
	sameInstant.FrameNo = 9
	differentReading := b
	differentReading.Emotions[frames.Negative2] = frames.Present

	got, stats := ingest.Dedup([]frames.Frame{a, b, a, sameInstant, differentReading})

	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(got), got)
	}
	if got[0] != a || got[1] != b || got[2] != differentReading {
		t.Fatalf("unexpected order or survivors: %+v", got)
	}
	if stats.Exact != 1 || stats.SameInstant != 1 || stats.Total() != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestLoaderConcatenatesInSourceOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "video_2.csv")
	second := filepath.Join(dir, "video_1.csv")
	rows := testsupport.Session(2, 4, 0, 3)
	rows = append(rows, rows[1])
	testsupport.WriteCSV(t, first, rows)
	testsupport.WriteCSV(t, second, append(testsupport.Session(1, 9, 0, 2), testsupport.CorruptRow(2, 80)))

	ds, err := ingest.NewLoader(nil, ingest.Options{}).Load(context.Background(), []string{first, second})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(ds.Frames) != 6 {
		t.Fatalf("expected 6 frames, got %d", len(ds.Frames))
	}
	if ds.Frames[0].VideoID != 2 || ds.Frames[3].VideoID != 1 || !ds.Frames[5].IDCorrupted {
		t.Fatalf("unexpected order: %+v", ds.Frames)
	}
	if ds.Rows() != 7 || ds.Files[0].Duplicates.Total() != 1 || ds.Files[1].Read.CorruptedIDs != 1 {
		t.Fatalf("unexpected summaries: %+v", ds.Files)
	}
}

func TestLoaderFailsOnMissingFile(t *testing.T) {
	_, err := ingest.NewLoader(nil, ingest.Options{}).Load(context.Background(), []string{filepath.Join(t.TempDir(), "absent.csv")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestInspectReportsNonNumericValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	testsupport.WriteCSV(t, path, [][]string{
		testsupport.Row(1, 1, 1, 40),
		testsupport.CorruptRow(2, 80),
		testsupport.Row(1, 1, 3, 120, "0", "No value", "0", "", "0"),
		testsupport.Row(1, 1, 4, 160),
	})

	got, err := ingest.Inspect(path)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if got.Rows != 4 || len(got.Columns) != len(frames.Columns) {
		t.Fatalf("unexpected inspection: %+v", got)
	}
	subject := got.Columns[1]
	if subject.Count != 1 || subject.Share != 25 || len(subject.Values) != 1 || subject.Values[0] != "No value" {
		t.Fatalf("unexpected subject report: %+v", subject)
	}
	if got.Columns[2].Count != 0 || len(got.Columns[2].Values) != 0 {
		t.Fatalf("frame_no should be fully numeric: %+v", got.Columns[2])
	}
	if got.Columns[5].Count != 1 || got.Columns[7].Values[0] != "" {
		t.Fatalf("unexpected emotion reports: %+v %+v", got.Columns[5], got.Columns[7])
	}
}
