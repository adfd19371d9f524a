package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"emotrace/internal/config"
	"emotrace/internal/frames"
	"emotrace/internal/ingest"
	"emotrace/internal/pipeline"
	"emotrace/internal/results"
	"emotrace/internal/stage"
	"emotrace/internal/testsupport"
)

// writeFixture writes two videos: video 1 holds subjects 1 and 2 with a
// two-frame id gap inside subject 1; video 2 holds subject 3 and subject 4,
// whose emotion readings are missing on 4 of 10 frames.
func writeFixture(t *testing.T, cfg *config.Config) {
	t.Helper()

	video1 := testsupport.Session(1, 1, 0, 20)
	video1[5] = testsupport.CorruptRow(5, 200)
	video1[6] = testsupport.CorruptRow(6, 240)
	video1 = append(video1, testsupport.Session(1, 2, 0, 20)...)
	// Exact duplicate dropped on ingest.
	video1 = append(video1, video1[len(video1)-1])

	video2 := testsupport.Session(2, 3, 0, 20)
	for n := 0; n < 10; n++ {
		if n%3 == 0 {
			video2 = append(video2, testsupport.Row(2, 4, n, n*40, frames.DefaultSentinel, "0", "1", "0", "0"))
			continue
		}
		video2 = append(video2, testsupport.Row(2, 4, n, n*40, "1", "0", "0", "0", "0"))
	}

	sources := cfg.SourceFiles()
	testsupport.WriteCSV(t, sources[0], video1)
	testsupport.WriteCSV(t, sources[1], video2)
}

func newPipeline(t *testing.T, cfg *config.Config) (*pipeline.Pipeline, *results.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	return pipeline.New(cfg, nil, store), store
}

func TestRunFullPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithVideos(1, 2))
	writeFixture(t, cfg)
	p, store := newPipeline(t, cfg)

	report, err := p.Run(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Status != results.StatusCompleted {
		t.Fatalf("status = %q, want completed", report.Status)
	}
	if report.Repair.CorruptedBefore != 2 || report.Repair.Unresolved != 0 {
		t.Fatalf("unexpected repair stats: %+v", report.Repair)
	}
	if report.Filter == nil || !slices.Contains(report.Filter.Removal.Removed, frames.SubjectKey{VideoID: 2, SubjectID: 4}) {
		t.Fatalf("expected subject 2/4 to be removed, got %+v", report.Filter)
	}
	if report.Counts.Records != 71 || report.Counts.Duplicates != 1 || report.Counts.OutputFrames != 60 {
		t.Fatalf("unexpected counts: %+v", report.Counts)
	}
	if report.Bins == nil || len(report.Bins.Cells) == 0 {
		t.Fatal("expected bin metrics")
	}

	var names []string
	for _, out := range report.Outputs {
		if _, err := os.Stat(out); err != nil {
			t.Fatalf("output %s missing: %v", out, err)
		}
		names = append(names, strings.TrimPrefix(filepath.Base(out), report.RunID[:8]+"_"))
	}
	for _, want := range []string{"repaired.csv", "filtered.csv", "bins.csv", "emotrace.xlsx"} {
		if !slices.Contains(names, want) {
			t.Fatalf("expected %s among outputs %v", want, names)
		}
	}

	var skipped []string
	for _, s := range report.Stages {
		if s.Skipped {
			skipped = append(skipped, s.Name)
		}
	}
	if len(report.Stages) != 6 || !slices.Equal(skipped, []string{pipeline.StageCharts}) {
		t.Fatalf("unexpected stage timings: %+v", report.Stages)
	}

	run, err := store.GetRun(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != results.StatusCompleted || run.Counts != report.Counts || run.LastStage != pipeline.StageExport {
		t.Fatalf("unexpected stored run: %+v", run)
	}
	bins, err := store.BinsForRun(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("BinsForRun failed: %v", err)
	}
	if len(bins) != len(report.Bins.Cells) {
		t.Fatalf("stored %d bins, want %d", len(bins), len(report.Bins.Cells))
	}
}

func TestRunRenderChartsWhenEnabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithVideos(1, 2), testsupport.WithCharts(), testsupport.WithBins(5))
	writeFixture(t, cfg)
	p := pipeline.New(cfg, nil, nil)

	report, err := p.Run(context.Background(), pipeline.Options{RunID: "chartrun-0001"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	var pngs int
	for _, out := range report.Outputs {
		if filepath.Ext(out) == ".png" {
			pngs++
		}
	}
	// Two evolution charts, one missing emotions, one frame counts, two time distributions.
	if pngs != 6 {
		t.Fatalf("expected 6 charts, got %d: %v", pngs, report.Outputs)
	}
}

func TestRunRepairModeExportsRepairedFrames(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithVideos(1, 2))
	cfg.Export.CSV = false
	writeFixture(t, cfg)
	p, _ := newPipeline(t, cfg)

	report, err := p.Run(context.Background(), pipeline.Options{Mode: pipeline.ModeRepair})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Filter != nil || report.Bins != nil {
		t.Fatal("repair mode should stop before filtering")
	}
	if len(report.Outputs) != 1 {
		t.Fatalf("expected one repaired export, got %v", report.Outputs)
	}

	got, stats, err := ingest.ReadFile(report.Outputs[0], ingest.Options{})
	if err != nil {
		t.Fatalf("ReadFile(repaired) failed: %v", err)
	}
	if stats.CorruptedIDs != 0 || len(got) != 70 {
		t.Fatalf("unexpected repaired export: %d rows, stats %+v", len(got), stats)
	}
	if got[5].SubjectID != 1 || got[6].SubjectID != 1 {
		t.Fatalf("gap not repaired: %+v %+v", got[5], got[6])
	}
}

func TestRunMissingSourceNeedsReview(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithVideos(1, 9))
	testsupport.WriteCSV(t, cfg.SourceFiles()[0], testsupport.Session(1, 1, 0, 5))
	p, store := newPipeline(t, cfg)

	report, err := p.Run(context.Background(), pipeline.Options{})
	if !errors.Is(err, stage.ErrNotFound) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if report.Status != results.StatusReview || report.FailedAt != pipeline.StageIngest {
		t.Fatalf("unexpected report: %+v", report)
	}

	run, err := store.GetRun(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != results.StatusReview || run.ErrorMessage == "" {
		t.Fatalf("unexpected stored run: %+v", run)
	}
}

func TestRunMalformedSourceIsValidationError(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithVideos(1))
	row := testsupport.Row(1, 1, 0, 0)
	row[2] = "abc"
	testsupport.WriteCSV(t, cfg.SourceFiles()[0], [][]string{row})

	_, err := pipeline.New(cfg, nil, nil).Run(context.Background(), pipeline.Options{})
	if !errors.Is(err, stage.ErrValidation) || !errors.Is(err, ingest.ErrMalformedRow) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunExplicitSourcesOverrideConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithVideos(7))
	path := filepath.Join(testsupport.BaseDir(cfg), "elsewhere.csv")
	testsupport.WriteCSV(t, path, testsupport.Session(3, 1, 0, 10))

	report, err := pipeline.New(cfg, nil, nil).Run(context.Background(), pipeline.Options{Sources: []string{path}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Files) != 1 || report.Files[0].Path != path {
		t.Fatalf("unexpected files: %+v", report.Files)
	}
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithVideos(1))
	testsupport.WriteCSV(t, cfg.SourceFiles()[0], testsupport.Session(1, 1, 0, 5))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	held := flock.New(cfg.LockPath())
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("could not take lock: %v", err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	if _, err := pipeline.New(cfg, nil, nil).Run(context.Background(), pipeline.Options{}); !errors.Is(err, pipeline.ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}

func TestRunCancelledBeforeStartRecordsNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithVideos(1))
	testsupport.WriteCSV(t, cfg.SourceFiles()[0], testsupport.Session(1, 1, 0, 5))
	p, store := newPipeline(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := p.Run(ctx, pipeline.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report != nil {
		t.Fatalf("expected no report, got %+v", report)
	}

	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no recorded runs, got %d", len(runs))
	}
}

func TestRunWithoutSourcesIsConfigurationError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Ingest.VideoIDs = nil

	_, err := pipeline.New(cfg, nil, nil).Run(context.Background(), pipeline.Options{})
	if !errors.Is(err, stage.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestModeStages(t *testing.T) {
	if got := pipeline.ModeRepair.Stages(); !slices.Equal(got, []string{"ingest", "repair", "export"}) {
		t.Fatalf("unexpected repair stages %v", got)
	}
	if got := pipeline.ModeFull.Stages(); len(got) != 6 || got[5] != "export" {
		t.Fatalf("unexpected full stages %v", got)
	}
}
