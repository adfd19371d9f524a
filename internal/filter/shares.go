package filter

import (
	"math"
	"slices"

	"emotrace/internal/aggregate"
	"emotrace/internal/frames"
)

// BandCount is the number of equal-width bands per-subject shares are bucketed into.
const BandCount = 5

// Share is the missing emotion share of one video or subject.
type Share struct {
	VideoID   int     `json:"video_id"`
	SubjectID int     `json:"subject_id,omitempty"`
	Records   int     `json:"records"`
	Missing   int     `json:"missing"`
	Percent   float64 `json:"percent"`
}

// Band counts subjects whose share falls in (Low, High].
type Band struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Subjects int     `json:"subjects"`
	Percent  float64 `json:"percent"`
}

// Shares reports missing emotion readings per video and per subject.
type Shares struct {
	Videos   []Share `json:"videos"`
	Subjects []Share `json:"subjects"`
	Bands    []Band  `json:"bands"`
}

// MissingEmotionShares computes the share of records carrying at least one
// missing emotion reading. Percentages are rounded to one decimal place.
// Records with corrupted ids are ignored.
func MissingEmotionShares(src []frames.Frame) Shares {
	videos := make(map[int]*Share)
	subjects := make(map[frames.SubjectKey]*Share)
	for _, f := range src {
		if f.IDCorrupted {
			continue
		}
		v, ok := videos[f.VideoID]
		if !ok {
			v = &Share{VideoID: f.VideoID}
			videos[f.VideoID] = v
		}
		s, ok := subjects[f.Key()]
		if !ok {
			s = &Share{VideoID: f.VideoID, SubjectID: f.SubjectID}
			subjects[f.Key()] = s
		}
		v.Records++
		s.Records++
		if f.EmotionMissing() {
			v.Missing++
			s.Missing++
		}
	}

	var out Shares
	for _, v := range videos {
		v.Percent = percent(v.Missing, v.Records)
		out.Videos = append(out.Videos, *v)
	}
	for _, s := range subjects {
		s.Percent = percent(s.Missing, s.Records)
		out.Subjects = append(out.Subjects, *s)
	}
	slices.SortFunc(out.Videos, compareShares)
	slices.SortFunc(out.Subjects, compareShares)
	out.Bands = bands(out.Subjects)
	return out
}

// ByKey indexes subject shares.
func (s Shares) ByKey() map[frames.SubjectKey]Share {
	out := make(map[frames.SubjectKey]Share, len(s.Subjects))
	for _, sh := range s.Subjects {
		out[frames.SubjectKey{VideoID: sh.VideoID, SubjectID: sh.SubjectID}] = sh
	}
	return out
}

func bands(subjects []Share) []Band {
	if len(subjects) == 0 {
		return nil
	}
	lo, hi := subjects[0].Percent, subjects[0].Percent
	for _, s := range subjects[1:] {
		lo = math.Min(lo, s.Percent)
		hi = math.Max(hi, s.Percent)
	}
	edges := aggregate.EqualWidthEdges(lo, hi, BandCount)
	out := make([]Band, BandCount)
	for i := range out {
		out[i].Low, out[i].High = edges[i], edges[i+1]
	}
	for _, s := range subjects {
		if b := aggregate.Locate(edges, s.Percent); b > 0 {
			out[b-1].Subjects++
		}
	}
	for i := range out {
		out[i].Percent = percent(out[i].Subjects, len(subjects))
	}
	return out
}

func compareShares(a, b Share) int {
	if a.VideoID != b.VideoID {
		return a.VideoID - b.VideoID
	}
	return a.SubjectID - b.SubjectID
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
