package results

import "time"

// Status tracks where a run ended up.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusReview marks runs stopped by bad input rather than a defect.
	StatusReview Status = "review"
)

// IsTerminal reports whether the run has finished.
func (s Status) IsTerminal() bool {
	return s != StatusRunning
}

// Counts are the per-stage totals recorded for a run.
type Counts struct {
	Records         int `json:"records"`
	Duplicates      int `json:"duplicates"`
	CorruptedIDs    int `json:"corrupted_ids"`
	ResolvedIDs     int `json:"resolved_ids"`
	UnresolvedIDs   int `json:"unresolved_ids"`
	SubjectsRemoved int `json:"subjects_removed"`
	OutputFrames    int `json:"output_frames"`
	Bins            int `json:"bins"`
}

// Run is one recorded pipeline execution.
type Run struct {
	ID           string     `json:"id"`
	Status       Status     `json:"status"`
	Sources      []string   `json:"sources"`
	ConfigPath   string     `json:"config_path,omitempty"`
	LastStage    string     `json:"last_stage,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Counts       Counts     `json:"counts"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Duration returns the elapsed run time, or zero while running.
func (r *Run) Duration() time.Duration {
	if r == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
