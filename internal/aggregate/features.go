package aggregate

import "emotrace/internal/frames"

// Observation is a frame enriched with per-subject features and metrics.
type Observation struct {
	frames.Frame
	// NoOfFrames is the number of frames recorded for the subject.
	NoOfFrames int
	// TimeDiff is the gap in milliseconds to the subject's previous frame;
	// HasTimeDiff is false for a subject's first frame.
	TimeDiff    int
	HasTimeDiff bool
	Metric1     int
	Metric2     int
	Metric3     int
}

// Metric1 is positive count minus negative count.
func Metric1(f frames.Frame) int {
	return f.PositiveCount() - f.NegativeCount()
}

// Metric2 is one when any positive emotion is present, minus one when any
// negative emotion is present.
func Metric2(f frames.Frame) int {
	return boolInt(f.PositiveCount() > 0) - boolInt(f.NegativeCount() > 0)
}

// Metric3 is one when any emotion is present.
func Metric3(f frames.Frame) int {
	return boolInt(f.EmotionCount() > 0)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Derive computes features and metrics for every frame, preserving order.
func Derive(src []frames.Frame) []Observation {
	counts := make(map[frames.SubjectKey]int)
	for _, f := range src {
		counts[f.Key()]++
	}

	last := make(map[frames.SubjectKey]int)
	out := make([]Observation, len(src))
	for i, f := range src {
		key := f.Key()
		o := Observation{
			Frame:      f,
			NoOfFrames: counts[key],
			Metric1:    Metric1(f),
			Metric2:    Metric2(f),
			Metric3:    Metric3(f),
		}
		if prev, ok := last[key]; ok {
			o.TimeDiff = f.MillisecondFromStart - prev
			o.HasTimeDiff = true
		}
		last[key] = f.MillisecondFromStart
		out[i] = o
	}
	return out
}
