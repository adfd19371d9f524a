package aggregate

import (
	"errors"
	"slices"

	"emotrace/internal/frames"
)

// ErrNoFrames is returned when there is nothing to bin.
var ErrNoFrames = errors.New("no frames to bin")

// BinMetric is the mean of each metric for one (video, bin) cell.
type BinMetric struct {
	VideoID int     `json:"video_id"`
	Bin     int     `json:"bin"`
	StartMS float64 `json:"start_ms"`
	EndMS   float64 `json:"end_ms"`
	Samples int     `json:"samples"`
	Metric1 float64 `json:"metric_1"`
	Metric2 float64 `json:"metric_2"`
	Metric3 float64 `json:"metric_3"`
}

// Delta12 is the gap between the first two metric means.
func (b BinMetric) Delta12() float64 { return b.Metric1 - b.Metric2 }

// Delta13 is the gap between the first and third metric means.
func (b BinMetric) Delta13() float64 { return b.Metric1 - b.Metric3 }

// BinTable is the output of Bin.
type BinTable struct {
	Count int         `json:"count"`
	Edges []float64   `json:"edges"`
	Cells []BinMetric `json:"cells"`
}

// Video returns the cells of one video in bin order.
func (t BinTable) Video(id int) []BinMetric {
	var out []BinMetric
	for _, c := range t.Cells {
		if c.VideoID == id {
			out = append(out, c)
		}
	}
	return out
}

// VideoIDs lists the videos present in the table in ascending order.
func (t BinTable) VideoIDs() []int {
	var ids []int
	for _, c := range t.Cells {
		if !slices.Contains(ids, c.VideoID) {
			ids = append(ids, c.VideoID)
		}
	}
	slices.Sort(ids)
	return ids
}

type cellKey struct {
	video int
	bin   int
}

type cellSum struct {
	n          int
	m1, m2, m3 int
}

// Bin splits the global millisecond range of obs into n equal-width
// right-closed bins labelled 1..n and averages each metric per video and bin.
// Only cells holding at least one observation are returned, ordered by video
// then bin.
func Bin(obs []Observation, n int) (BinTable, error) {
	if len(obs) == 0 {
		return BinTable{}, ErrNoFrames
	}
	lo, hi := obs[0].MillisecondFromStart, obs[0].MillisecondFromStart
	for _, o := range obs[1:] {
		lo = min(lo, o.MillisecondFromStart)
		hi = max(hi, o.MillisecondFromStart)
	}
	edges := EqualWidthEdges(float64(lo), float64(hi), n)

	sums := make(map[cellKey]*cellSum)
	for _, o := range obs {
		bin := max(Locate(edges, float64(o.MillisecondFromStart)), 1)
		key := cellKey{video: o.VideoID, bin: bin}
		s, ok := sums[key]
		if !ok {
			s = &cellSum{}
			sums[key] = s
		}
		s.n++
		s.m1 += o.Metric1
		s.m2 += o.Metric2
		s.m3 += o.Metric3
	}

	table := BinTable{Count: len(edges) - 1, Edges: edges}
	for key, s := range sums {
		total := float64(s.n)
		table.Cells = append(table.Cells, BinMetric{
			VideoID: key.video,
			Bin:     key.bin,
			StartMS: edges[key.bin-1],
			EndMS:   edges[key.bin],
			Samples: s.n,
			Metric1: float64(s.m1) / total,
			Metric2: float64(s.m2) / total,
			Metric3: float64(s.m3) / total,
		})
	}
	slices.SortFunc(table.Cells, func(a, b BinMetric) int {
		if a.VideoID != b.VideoID {
			return a.VideoID - b.VideoID
		}
		return a.Bin - b.Bin
	})
	return table, nil
}

// Frames strips the derived fields.
func Frames(obs []Observation) []frames.Frame {
	out := make([]frames.Frame, len(obs))
	for i, o := range obs {
		out[i] = o.Frame
	}
	return out
}
