package frames

import (
	"reflect"
	"testing"
)

func TestFrameCounts(t *testing.T) {
	f := Frame{Emotions: [NumEmotions]Reading{Present, Absent, Present, Present, Absent}}
	if got := f.PositiveCount(); got != 1 {
		t.Fatalf("PositiveCount = %d, want 1", got)
	}
	if got := f.NegativeCount(); got != 2 {
		t.Fatalf("NegativeCount = %d, want 2", got)
	}
	if got := f.EmotionCount(); got != 3 {
		t.Fatalf("EmotionCount = %d, want 3", got)
	}
	if f.EmotionMissing() {
		t.Fatal("expected no missing emotion")
	}
	f.Emotions[Negative3] = Missing
	if !f.EmotionMissing() {
		t.Fatal("expected missing emotion after corrupting negative_3")
	}
}

func TestRecordRestoresSentinel(t *testing.T) {
	f := Frame{FrameNo: 7, MillisecondFromStart: 280, Emotions: [NumEmotions]Reading{Absent, Missing, Absent, Present, Absent}}
	f.CorruptIDs()

	got := f.Record("")
	want := []string{"No value", "No value", "7", "280", "0", "No value", "0", "1", "0"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Record = %v, want %v", got, want)
	}

	f.SetIDs(2, 41)
	got = f.Record("NA")
	if got[0] != "2" || got[1] != "41" || got[5] != "NA" {
		t.Fatalf("unexpected record after SetIDs: %v", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	src := []Frame{{VideoID: 1, SubjectID: 3}}
	dup := Clone(src)
	dup[0].CorruptIDs()
	if src[0].IDCorrupted {
		t.Fatal("clone shares backing array with source")
	}
	if CountCorrupted(dup) != 1 || CountCorrupted(src) != 0 {
		t.Fatal("unexpected corrupted counts")
	}
	if Clone(nil) != nil {
		t.Fatal("expected nil clone of nil slice")
	}
}
