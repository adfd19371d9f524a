package testsupport

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"emotrace/internal/frames"
)

// Row builds a CSV row for a valid subject frame. Emotions default to all
// absent; pass exactly five values to override.
func Row(video, subject, frameNo, ms int, emotions ...string) []string {
	if len(emotions) != frames.NumEmotions {
		emotions = []string{"0", "0", "0", "0", "0"}
	}
	row := []string{strconv.Itoa(video), strconv.Itoa(subject), strconv.Itoa(frameNo), strconv.Itoa(ms)}
	return append(row, emotions...)
}

// CorruptRow builds a CSV row whose ids carry the default sentinel.
func CorruptRow(frameNo, ms int, emotions ...string) []string {
	row := Row(0, 0, frameNo, ms, emotions...)
	row[0] = frames.DefaultSentinel
	row[1] = frames.DefaultSentinel
	return row
}

// WriteCSV writes the canonical header followed by rows.
func WriteCSV(t testing.TB, path string, rows [][]string) {
	t.Helper()
	WriteRawCSV(t, path, append([][]string{frames.Columns}, rows...))
}

// WriteRawCSV writes rows verbatim, header included.
func WriteRawCSV(t testing.TB, path string, rows [][]string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Session returns n consecutive rows for one subject starting at frame start.
// Frames are 40ms apart.
func Session(video, subject, start, n int) [][]string {
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		frameNo := start + i
		rows = append(rows, Row(video, subject, frameNo, frameNo*40))
	}
	return rows
}
