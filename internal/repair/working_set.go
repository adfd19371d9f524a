package repair

import "emotrace/internal/frames"

type pass uint8

const (
	passNone pass = iota
	passForward
	passBackward
)

func (p pass) String() string {
	switch p {
	case passForward:
		return "forward"
	case passBackward:
		return "backward"
	default:
		return "none"
	}
}

// entry is one working-set record. index points back into the full sequence.
type entry struct {
	index      int
	frame      frames.Frame
	group      int
	resolvedBy pass
}

// run is a maximal block of working-set entries sharing one corruption flag.
type run struct {
	group     int
	start     int // first entry offset in workingSet.entries
	end       int // one past the last entry offset
	corrupted bool
}

func (r run) length() int { return r.end - r.start }

type workingSet struct {
	entries []entry
	runs    []run
}

// newWorkingSet restricts the sequence to corrupted records plus their
// immediate predecessor and successor, then groups the result into runs.
func newWorkingSet(seq []frames.Frame) *workingSet {
	ws := &workingSet{}
	for i := range seq {
		if !inContext(seq, i) {
			continue
		}
		ws.entries = append(ws.entries, entry{index: i, frame: seq[i]})
	}
	ws.groupRuns()
	return ws
}

func inContext(seq []frames.Frame, i int) bool {
	if seq[i].IDCorrupted {
		return true
	}
	if i > 0 && seq[i-1].IDCorrupted {
		return true
	}
	return i+1 < len(seq) && seq[i+1].IDCorrupted
}

// groupRuns assigns an incrementing group id whenever the corruption flag
// differs from the previous entry.
func (w *workingSet) groupRuns() {
	w.runs = w.runs[:0]
	group := 0
	for i := range w.entries {
		flag := w.entries[i].frame.IDCorrupted
		if i == 0 || flag != w.entries[i-1].frame.IDCorrupted {
			group++
			w.runs = append(w.runs, run{group: group, start: i, corrupted: flag})
		}
		w.entries[i].group = group
		w.runs[len(w.runs)-1].end = i + 1
	}
}

func (w *workingSet) corruptedRuns() []run {
	out := make([]run, 0, len(w.runs)/2+1)
	for _, r := range w.runs {
		if r.corrupted {
			out = append(out, r)
		}
	}
	return out
}

// merge writes the working copies back over a copy of the full sequence.
func (w *workingSet) merge(seq []frames.Frame) []frames.Frame {
	out := frames.Clone(seq)
	for _, e := range w.entries {
		out[e.index] = e.frame
	}
	return out
}
