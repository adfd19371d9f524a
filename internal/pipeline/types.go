package pipeline

import (
	"time"

	"emotrace/internal/aggregate"
	"emotrace/internal/filter"
	"emotrace/internal/ingest"
	"emotrace/internal/repair"
	"emotrace/internal/results"
)

// Stage names in execution order.
const (
	StageIngest    = "ingest"
	StageRepair    = "repair"
	StageFilter    = "filter"
	StageAggregate = "aggregate"
	StageCharts    = "charts"
	StageExport    = "export"
)

// Mode selects which stages a run executes.
type Mode string

const (
	// ModeFull runs every stage.
	ModeFull Mode = "full"
	// ModeRepair stops after identifier repair and exports the repaired frames.
	ModeRepair Mode = "repair"
)

// Stages lists the stage names executed in the given mode.
func (m Mode) Stages() []string {
	if m == ModeRepair {
		return []string{StageIngest, StageRepair, StageExport}
	}
	return []string{StageIngest, StageRepair, StageFilter, StageAggregate, StageCharts, StageExport}
}

// Options controls a single run.
type Options struct {
	// Sources overrides the files derived from the ingest configuration.
	Sources []string
	Mode    Mode
	// RunID is generated when empty.
	RunID string
}

// StageTiming records how long a stage took.
type StageTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Skipped  bool          `json:"skipped,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	RunID      string               `json:"run_id"`
	Mode       Mode                 `json:"mode"`
	Status     results.Status       `json:"status"`
	Sources    []string             `json:"sources"`
	Files      []ingest.FileSummary `json:"files"`
	Repair     repair.Stats         `json:"repair"`
	RepairRuns []repair.RunOutcome  `json:"repair_runs,omitempty"`
	Filter     *filter.Result       `json:"filter,omitempty"`
	Summary    *aggregate.Summary   `json:"summary,omitempty"`
	Bins       *aggregate.BinTable  `json:"bins,omitempty"`
	Outputs    []string             `json:"outputs"`
	Stages     []StageTiming        `json:"stages"`
	Counts     results.Counts       `json:"counts"`
	FailedAt   string               `json:"failed_at,omitempty"`
	Error      string               `json:"error,omitempty"`
}
