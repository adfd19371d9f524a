package stage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	err := Wrap(ErrValidation, "ingest", "read csv", "row 4 has no frame_no", io.ErrUnexpectedEOF)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "ingest: read csv: row 4 has no frame_no") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected io marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "stage failure") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestFailureOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want Outcome
	}{
		{Wrap(ErrValidation, "ingest", "", "", nil), OutcomeReview},
		{Wrap(ErrInvariant, "repair", "", "", nil), OutcomeReview},
		{Wrap(ErrConfiguration, "charts", "", "", nil), OutcomeFailed},
		{errors.New("boom"), OutcomeFailed},
	}
	for _, tc := range cases {
		if got := FailureOutcome(tc.err); got != tc.want {
			t.Fatalf("FailureOutcome(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestContextValues(t *testing.T) {
	ctx := WithVideoID(WithStage(WithRunID(context.Background(), "run-1"), "repair"), 2)
	if id, ok := RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id %q", id)
	}
	if name, ok := StageFromContext(ctx); !ok || name != "repair" {
		t.Fatalf("unexpected stage %q", name)
	}
	if video, ok := VideoIDFromContext(ctx); !ok || video != 2 {
		t.Fatalf("unexpected video %d", video)
	}
	if _, ok := RunIDFromContext(WithRunID(context.Background(), "")); ok {
		t.Fatal("empty run id should not be stored")
	}
}
