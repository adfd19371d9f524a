package repair

import "emotrace/internal/frames"

// step is an optional absolute frame difference.
type step struct {
	value int
	ok    bool
}

func (s step) unit() bool { return s.ok && s.value == 1 }

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// forwardFill copies the nearest preceding valid id pair into every corrupted
// entry. Entries with no valid predecessor stay corrupted.
func (w *workingSet) forwardFill() {
	var (
		last frames.Frame
		have bool
	)
	for i := range w.entries {
		f := &w.entries[i].frame
		if !f.IDCorrupted {
			last, have = *f, true
			continue
		}
		if have {
			f.SetIDs(last.VideoID, last.SubjectID)
		}
	}
}

// backwardFill copies the nearest following valid id pair into every
// corrupted entry. Entries with no valid successor stay corrupted.
func (w *workingSet) backwardFill() {
	var (
		next frames.Frame
		have bool
	)
	for i := len(w.entries) - 1; i >= 0; i-- {
		f := &w.entries[i].frame
		if !f.IDCorrupted {
			next, have = *f, true
			continue
		}
		if have {
			f.SetIDs(next.VideoID, next.SubjectID)
		}
	}
}

// previousSteps returns, per entry, |frame_no - frame_no of the previous entry
// with the same ids|. Entries without ids or without such a predecessor have
// no step. Ids are the (video, subject) pair, not the subject id alone, so
// equal subject numbers in different videos never vouch for each other.
func (w *workingSet) previousSteps() []step {
	steps := make([]step, len(w.entries))
	lastFrame := make(map[frames.SubjectKey]int)
	for i, e := range w.entries {
		if e.frame.IDCorrupted {
			continue
		}
		key := e.frame.Key()
		if prev, ok := lastFrame[key]; ok {
			steps[i] = step{value: absInt(e.frame.FrameNo - prev), ok: true}
		}
		lastFrame[key] = e.frame.FrameNo
	}
	return steps
}

// nextSteps mirrors previousSteps looking at the following entry with the
// same ids.
func (w *workingSet) nextSteps() []step {
	steps := make([]step, len(w.entries))
	nextFrame := make(map[frames.SubjectKey]int)
	for i := len(w.entries) - 1; i >= 0; i-- {
		e := w.entries[i]
		if e.frame.IDCorrupted {
			continue
		}
		key := e.frame.Key()
		if next, ok := nextFrame[key]; ok {
			steps[i] = step{value: absInt(next - e.frame.FrameNo), ok: true}
		}
		nextFrame[key] = e.frame.FrameNo
	}
	return steps
}

// forwardPass fills corrupted entries from their predecessors and keeps a
// run's fill only when the largest frame step across the whole run is exactly
// one. Rejected runs are reset to corrupted.
func (w *workingSet) forwardPass() (resolved, rejectedRuns int) {
	targets := w.corruptedRuns()
	w.forwardFill()
	steps := w.previousSteps()

	for _, r := range targets {
		maxStep := step{}
		for i := r.start; i < r.end; i++ {
			s := steps[i]
			if !s.ok {
				continue
			}
			if !maxStep.ok || s.value > maxStep.value {
				maxStep = s
			}
		}
		if !maxStep.ok || maxStep.value != 1 {
			for i := r.start; i < r.end; i++ {
				w.entries[i].frame.CorruptIDs()
			}
			rejectedRuns++
			continue
		}
		for i := r.start; i < r.end; i++ {
			w.entries[i].resolvedBy = passForward
			resolved++
		}
	}
	return resolved, rejectedRuns
}

// backwardPass fills the entries still corrupted after the forward pass from
// their successors and keeps each fill only when that entry's own step to the
// next same-subject entry is exactly one. A rollback can remove the successor
// another fill relied on, so acceptance repeats until nothing changes.
func (w *workingSet) backwardPass() (resolved, rejected int) {
	candidates := make([]bool, len(w.entries))
	for i := range w.entries {
		candidates[i] = w.entries[i].frame.IDCorrupted
	}

	w.backwardFill()
	for changed := true; changed; {
		changed = false
		steps := w.nextSteps()
		for i := range w.entries {
			if !candidates[i] || w.entries[i].frame.IDCorrupted {
				continue
			}
			if steps[i].unit() {
				continue
			}
			w.entries[i].frame.CorruptIDs()
			changed = true
		}
	}

	for i := range w.entries {
		if !candidates[i] {
			continue
		}
		if w.entries[i].frame.IDCorrupted {
			rejected++
			continue
		}
		w.entries[i].resolvedBy = passBackward
		resolved++
	}
	return resolved, rejected
}
