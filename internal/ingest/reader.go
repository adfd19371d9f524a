package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"emotrace/internal/frames"
)

var (
	// ErrMalformedRow marks a row whose frame position cannot be parsed.
	ErrMalformedRow = errors.New("malformed row")
	// ErrMissingColumn marks a header lacking a required column.
	ErrMissingColumn = errors.New("missing column")
)

// Options controls parsing.
type Options struct {
	// Sentinel is the text marking a corrupted cell. Empty means frames.DefaultSentinel.
	Sentinel string
}

func (o Options) sentinel() string {
	if s := strings.TrimSpace(o.Sentinel); s != "" {
		return s
	}
	return frames.DefaultSentinel
}

// ReadStats counts what a single file contained.
type ReadStats struct {
	Rows            int `json:"rows"`
	CorruptedIDs    int `json:"corrupted_ids"`
	SplitIDs        int `json:"split_ids"`
	MissingEmotions int `json:"missing_emotions"`
}

// ReadFile parses one sensor log from disk.
func ReadFile(path string, opts Options) ([]frames.Frame, ReadStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	out, stats, err := Read(file, opts)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	return out, stats, nil
}

// Read parses a sensor log from r.
func Read(r io.Reader, opts Options) ([]frames.Frame, ReadStats, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	var stats ReadStats
	header, err := reader.Read()
	if err == io.EOF {
		return nil, stats, nil
	}
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, stats, err
	}

	p := rowParser{idx: idx, sentinel: opts.sentinel()}
	var out []frames.Frame
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		f, split, err := p.parse(row)
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w", line, err)
		}
		stats.Rows++
		if f.IDCorrupted {
			stats.CorruptedIDs++
		}
		if split {
			stats.SplitIDs++
		}
		if f.EmotionMissing() {
			stats.MissingEmotions++
		}
		out = append(out, f)
	}
	return out, stats, nil
}

func columnIndex(header []string) ([]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := byName[name]; !dup {
			byName[name] = i
		}
	}
	idx := make([]int, len(frames.Columns))
	var missing []string
	for i, col := range frames.Columns {
		pos, ok := byName[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[i] = pos
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

type rowParser struct {
	idx      []int
	sentinel string
}

func (p rowParser) cell(row []string, col int) string {
	pos := p.idx[col]
	if pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func (p rowParser) corrupted(value string) bool {
	return value == "" || value == p.sentinel
}

// parse converts one row. split reports that only one of the two id cells
// carried the sentinel; both ids are treated as corrupted in that case.
func (p rowParser) parse(row []string) (frames.Frame, bool, error) {
	var f frames.Frame

	videoCell, subjectCell := p.cell(row, 0), p.cell(row, 1)
	videoBad, subjectBad := p.corrupted(videoCell), p.corrupted(subjectCell)
	split := videoBad != subjectBad
	if videoBad || subjectBad {
		f.CorruptIDs()
	} else {
		video, err := parseWhole(videoCell)
		if err != nil {
			return f, false, fmt.Errorf("%w: video_id %q", ErrMalformedRow, videoCell)
		}
		subject, err := parseWhole(subjectCell)
		if err != nil {
			return f, false, fmt.Errorf("%w: subject_id %q", ErrMalformedRow, subjectCell)
		}
		f.SetIDs(video, subject)
	}

	var err error
	if f.FrameNo, err = parseWhole(p.cell(row, 2)); err != nil {
		return f, false, fmt.Errorf("%w: frame_no %q", ErrMalformedRow, p.cell(row, 2))
	}
	if f.MillisecondFromStart, err = parseWhole(p.cell(row, 3)); err != nil {
		return f, false, fmt.Errorf("%w: millisecond_from_start %q", ErrMalformedRow, p.cell(row, 3))
	}

	for i := range frames.NumEmotions {
		value := p.cell(row, 4+i)
		reading, err := p.parseReading(value)
		if err != nil {
			return f, false, fmt.Errorf("%w: %s %q", ErrMalformedRow, frames.EmotionNames[i], value)
		}
		f.Emotions[i] = reading
	}
	return f, split, nil
}

func (p rowParser) parseReading(value string) (frames.Reading, error) {
	if p.corrupted(value) {
		return frames.Missing, nil
	}
	n, err := parseWhole(value)
	if err != nil {
		return frames.Missing, err
	}
	switch n {
	case 0:
		return frames.Absent, nil
	case 1:
		return frames.Present, nil
	default:
		return frames.Missing, fmt.Errorf("reading out of range: %d", n)
	}
}

// parseWhole accepts integers and integral floats ("12.0"), which appear when
// the logs have been round-tripped through a spreadsheet.
func parseWhole(value string) (int, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("not a whole number: %q", value)
	}
	// float64(math.MaxInt) rounds up to 2^63, which is already out of range.
	if v >= float64(math.MaxInt) || v < float64(math.MinInt) {
		return 0, fmt.Errorf("out of range: %q", value)
	}
	return int(v), nil
}
