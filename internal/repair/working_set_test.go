package repair

import (
	"errors"
	"testing"

	"emotrace/internal/frames"
)

func TestNewWorkingSetGroupsRuns(t *testing.T) {
	// flags: 0 0 1 0 1 1 0 0
	seq := []frames.Frame{
		valid(1, 1, 1), valid(1, 1, 2), corrupt(3), valid(1, 1, 4),
		corrupt(5), corrupt(6), valid(1, 1, 7), valid(1, 1, 8),
	}

	ws := newWorkingSet(seq)

	wantIndexes := []int{1, 2, 3, 4, 5, 6}
	if len(ws.entries) != len(wantIndexes) {
		t.Fatalf("working set has %d entries, want %d", len(ws.entries), len(wantIndexes))
	}
	for i, idx := range wantIndexes {
		if ws.entries[i].index != idx {
			t.Fatalf("entry %d index = %d, want %d", i, ws.entries[i].index, idx)
		}
	}
	wantGroups := []int{1, 2, 3, 4, 4, 5}
	for i, g := range wantGroups {
		if ws.entries[i].group != g {
			t.Fatalf("entry %d group = %d, want %d", i, ws.entries[i].group, g)
		}
	}
	runs := ws.corruptedRuns()
	if len(runs) != 2 || runs[1].length() != 2 {
		t.Fatalf("unexpected corrupted runs: %+v", runs)
	}
}

func TestVerifyFlagsResolvedRecordWithoutUnitStep(t *testing.T) {
	ws := &workingSet{entries: []entry{
		{index: 0, frame: valid(1, 1, 1)},
		{index: 1, frame: valid(1, 1, 2), resolvedBy: passForward},
		{index: 2, frame: valid(1, 1, 9), resolvedBy: passBackward},
	}}

	violations := ws.verify()
	if len(violations) != 1 {
		t.Fatalf("expected one violation, got %+v", violations)
	}
	if violations[0].Index != 2 || violations[0].Pass != "backward" || violations[0].Step != 7 {
		t.Fatalf("unexpected violation: %+v", violations[0])
	}
	if err := reconciliationError(violations); !errors.Is(err, ErrReconciliation) {
		t.Fatalf("expected ErrReconciliation, got %v", err)
	}
}

func TestVerifyAcceptsUnitStepOnEitherSide(t *testing.T) {
	ws := &workingSet{entries: []entry{
		{index: 0, frame: valid(1, 1, 4), resolvedBy: passBackward},
		{index: 1, frame: valid(1, 1, 5)},
		{index: 2, frame: valid(1, 1, 6), resolvedBy: passForward},
	}}
	if got := ws.verify(); len(got) != 0 {
		t.Fatalf("expected no violations, got %+v", got)
	}
}

func TestVerifyIgnoresOtherVideosWithSameSubject(t *testing.T) {
	ws := &workingSet{entries: []entry{
		{index: 0, frame: valid(2, 1, 4)},
		{index: 1, frame: valid(1, 1, 5), resolvedBy: passForward},
	}}
	got := ws.verify()
	if len(got) != 1 || got[0].Step != -1 {
		t.Fatalf("expected violation without same-key neighbour, got %+v", got)
	}
}

func TestVerifyFlagsResolvedRecordThatIsStillCorrupted(t *testing.T) {
	f := corrupt(4)
	ws := &workingSet{entries: []entry{{index: 3, frame: f, resolvedBy: passForward}}}
	if got := ws.verify(); len(got) != 1 {
		t.Fatalf("expected violation for corrupted resolved entry, got %+v", got)
	}
}
