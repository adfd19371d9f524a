package repair

import (
	"errors"
	"fmt"
)

// ErrReconciliation reports that the engine produced a resolved record that
// does not satisfy its own continuity check. The result is withheld and the
// input range needs a manual look.
var ErrReconciliation = errors.New("not all missing values were replaced; investigate manually")

// Violation describes one resolved record that failed verification.
type Violation struct {
	Index   int
	FrameNo int
	Pass    string
	// Step is the smallest frame difference to a same-subject entry, or -1
	// when no such entry exists.
	Step int
}

// verify recomputes continuity from the final working set: every resolved
// entry must hold valid ids and sit exactly one frame away from the previous
// or next entry carrying the same ids.
func (w *workingSet) verify() []Violation {
	prev, next := w.previousSteps(), w.nextSteps()
	var out []Violation
	for i, e := range w.entries {
		if e.resolvedBy == passNone {
			continue
		}
		if !e.frame.IDCorrupted && (prev[i].unit() || next[i].unit()) {
			continue
		}
		out = append(out, Violation{
			Index:   e.index,
			FrameNo: e.frame.FrameNo,
			Pass:    e.resolvedBy.String(),
			Step:    nearest(prev[i], next[i]),
		})
	}
	return out
}

func nearest(a, b step) int {
	switch {
	case a.ok && b.ok:
		return min(a.value, b.value)
	case a.ok:
		return a.value
	case b.ok:
		return b.value
	default:
		return -1
	}
}

func reconciliationError(violations []Violation) error {
	first := violations[0]
	return fmt.Errorf("%w: %d resolved records fail the frame continuity check (first at index %d, frame %d, %s pass, step %d)",
		ErrReconciliation, len(violations), first.Index, first.FrameNo, first.Pass, first.Step)
}
