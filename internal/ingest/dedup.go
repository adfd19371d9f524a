package ingest

import "emotrace/internal/frames"

// DedupStats reports how many records each key removed.
type DedupStats struct {
	Exact       int `json:"exact"`
	SameInstant int `json:"same_instant"`
}

// Total is the number of dropped records.
func (s DedupStats) Total() int { return s.Exact + s.SameInstant }

// Dedup drops repeated records in two passes, keeping the first occurrence and
// the original order. The first key is the whole record; the second ignores
// frame_no so a reading logged twice at the same millisecond under different
// frame numbers counts once.
func Dedup(src []frames.Frame) ([]frames.Frame, DedupStats) {
	var stats DedupStats
	first := dedupBy(src, func(f frames.Frame) frames.Frame { return f })
	stats.Exact = len(src) - len(first)
	second := dedupBy(first, func(f frames.Frame) frames.Frame {
		f.FrameNo = 0
		return f
	})
	stats.SameInstant = len(first) - len(second)
	return second, stats
}

func dedupBy(src []frames.Frame, key func(frames.Frame) frames.Frame) []frames.Frame {
	seen := make(map[frames.Frame]struct{}, len(src))
	out := make([]frames.Frame, 0, len(src))
	for _, f := range src {
		k := key(f)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, f)
	}
	return out
}
