package filter

import (
	"cmp"
	"slices"

	"emotrace/internal/frames"
	"emotrace/internal/ingest"
)

// DropUnresolved removes records whose ids stayed corrupted.
func DropUnresolved(src []frames.Frame) ([]frames.Frame, int) {
	return keep(src, func(f frames.Frame) bool { return !f.IDCorrupted })
}

// DropMissingEmotions removes records with any missing emotion reading.
func DropMissingEmotions(src []frames.Frame) ([]frames.Frame, int) {
	return keep(src, func(f frames.Frame) bool { return !f.EmotionMissing() })
}

// VideoRemoval reports subject counts for one video before and after removal.
type VideoRemoval struct {
	VideoID        int     `json:"video_id"`
	Before         int     `json:"before"`
	After          int     `json:"after"`
	RemovedPercent float64 `json:"removed_percent"`
}

// Removal describes the outcome of RemoveSubjects.
type Removal struct {
	Threshold      float64             `json:"threshold"`
	Videos         []VideoRemoval      `json:"videos"`
	Removed        []frames.SubjectKey `json:"removed"`
	Before         int                 `json:"before"`
	After          int                 `json:"after"`
	RemovedPercent float64             `json:"removed_percent"`
	DroppedFrames  int                 `json:"dropped_frames"`
}

// RemoveSubjects drops every record of a subject whose missing emotion share
// is strictly greater than threshold (a percentage).
func RemoveSubjects(src []frames.Frame, threshold float64) ([]frames.Frame, Removal) {
	shares := MissingEmotionShares(src).ByKey()
	rep := Removal{Threshold: threshold}

	drop := make(map[frames.SubjectKey]bool)
	perVideo := make(map[int]*VideoRemoval)
	for key, sh := range shares {
		v, ok := perVideo[key.VideoID]
		if !ok {
			v = &VideoRemoval{VideoID: key.VideoID}
			perVideo[key.VideoID] = v
		}
		v.Before++
		if sh.Percent > threshold {
			drop[key] = true
			rep.Removed = append(rep.Removed, key)
			continue
		}
		v.After++
	}

	out, dropped := keep(src, func(f frames.Frame) bool {
		return f.IDCorrupted || !drop[f.Key()]
	})
	rep.DroppedFrames = dropped

	for _, v := range perVideo {
		v.RemovedPercent = percent(v.Before-v.After, v.Before)
		rep.Before += v.Before
		rep.After += v.After
		rep.Videos = append(rep.Videos, *v)
	}
	rep.RemovedPercent = percent(rep.Before-rep.After, rep.Before)
	slices.SortFunc(rep.Videos, func(a, b VideoRemoval) int { return a.VideoID - b.VideoID })
	slices.SortFunc(rep.Removed, compareKeys)
	return out, rep
}

// Canonicalize sorts records by video, subject, frame and millisecond,
// keeping the relative order of ties, then deduplicates again.
func Canonicalize(src []frames.Frame) ([]frames.Frame, ingest.DedupStats) {
	sorted := frames.Clone(src)
	slices.SortStableFunc(sorted, func(a, b frames.Frame) int {
		return cmp.Or(
			cmp.Compare(a.VideoID, b.VideoID),
			cmp.Compare(a.SubjectID, b.SubjectID),
			cmp.Compare(a.FrameNo, b.FrameNo),
			cmp.Compare(a.MillisecondFromStart, b.MillisecondFromStart),
		)
	})
	return ingest.Dedup(sorted)
}

func keep(src []frames.Frame, pred func(frames.Frame) bool) ([]frames.Frame, int) {
	out := make([]frames.Frame, 0, len(src))
	for _, f := range src {
		if pred(f) {
			out = append(out, f)
		}
	}
	return out, len(src) - len(out)
}

func compareKeys(a, b frames.SubjectKey) int {
	return cmp.Or(cmp.Compare(a.VideoID, b.VideoID), cmp.Compare(a.SubjectID, b.SubjectID))
}
