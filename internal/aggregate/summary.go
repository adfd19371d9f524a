package aggregate

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"emotrace/internal/frames"
)

// Describe holds descriptive statistics of a sample.
type Describe struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"q25"`
	Q50   float64 `json:"q50"`
	Q75   float64 `json:"q75"`
	Max   float64 `json:"max"`
}

// VideoSummary describes one video after filtering.
type VideoSummary struct {
	VideoID  int `json:"video_id"`
	Frames   int `json:"frames"`
	Subjects int `json:"subjects"`
	MinMS    int `json:"min_ms"`
	MaxMS    int `json:"max_ms"`
}

// Summary collects the dataset statistics reported after filtering.
type Summary struct {
	Frames       int            `json:"frames"`
	Videos       []VideoSummary `json:"videos"`
	TimeDiff     Describe       `json:"time_diff"`
	FramesPerSub Describe       `json:"frames_per_subject"`
	// Distributions are percentages of frames by emotion count, indexed by count.
	Positive []float64 `json:"positive"`
	Negative []float64 `json:"negative"`
	Total    []float64 `json:"total"`
}

// Summarize computes per-video ranges, subject counts, time-gap statistics
// and emotion count distributions.
func Summarize(obs []Observation) Summary {
	s := Summary{
		Frames:   len(obs),
		Positive: make([]float64, 3),
		Negative: make([]float64, 4),
		Total:    make([]float64, frames.NumEmotions+1),
	}

	byVideo := make(map[int]*VideoSummary)
	subjects := make(map[frames.SubjectKey]int)
	var gaps []float64
	for _, o := range obs {
		v, ok := byVideo[o.VideoID]
		if !ok {
			v = &VideoSummary{VideoID: o.VideoID, MinMS: o.MillisecondFromStart, MaxMS: o.MillisecondFromStart}
			byVideo[o.VideoID] = v
		}
		v.Frames++
		v.MinMS = min(v.MinMS, o.MillisecondFromStart)
		v.MaxMS = max(v.MaxMS, o.MillisecondFromStart)
		if _, seen := subjects[o.Key()]; !seen {
			v.Subjects++
		}
		subjects[o.Key()] = o.NoOfFrames
		if o.HasTimeDiff {
			gaps = append(gaps, float64(o.TimeDiff))
		}
		s.Positive[o.PositiveCount()]++
		s.Negative[o.NegativeCount()]++
		s.Total[o.EmotionCount()]++
	}

	for _, v := range byVideo {
		s.Videos = append(s.Videos, *v)
	}
	slices.SortFunc(s.Videos, func(a, b VideoSummary) int { return a.VideoID - b.VideoID })

	perSubject := make([]float64, 0, len(subjects))
	for _, n := range subjects {
		perSubject = append(perSubject, float64(n))
	}
	s.TimeDiff = describe(gaps)
	s.FramesPerSub = describe(perSubject)

	for _, dist := range [][]float64{s.Positive, s.Negative, s.Total} {
		if s.Frames == 0 {
			break
		}
		floats.Scale(100/float64(s.Frames), dist)
		for i := range dist {
			dist[i] = round1(dist[i])
		}
	}
	return s
}

func describe(sample []float64) Describe {
	if len(sample) == 0 {
		return Describe{}
	}
	x := slices.Clone(sample)
	sort.Float64s(x)
	d := Describe{
		Count: len(x),
		Mean:  stat.Mean(x, nil),
		Min:   x[0],
		Max:   x[len(x)-1],
		Q25:   stat.Quantile(0.25, stat.LinInterp, x, nil),
		Q50:   stat.Quantile(0.5, stat.LinInterp, x, nil),
		Q75:   stat.Quantile(0.75, stat.LinInterp, x, nil),
	}
	if len(x) > 1 {
		d.Std = stat.StdDev(x, nil)
	}
	return d
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
