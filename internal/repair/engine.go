package repair

import (
	"context"
	"log/slog"

	"emotrace/internal/frames"
	"emotrace/internal/logging"
)

// Options tunes the engine.
type Options struct {
	// MaxRounds bounds how many complete forward+backward executions run.
	// A later round only helps when an earlier one shrank a run enough for a
	// neighbour to become usable. Values below one mean one round.
	MaxRounds int
}

// Stats summarizes one Repair call.
type Stats struct {
	Records             int `json:"records"`
	CorruptedBefore     int `json:"corrupted_before"`
	WorkingSet          int `json:"working_set"`
	Runs                int `json:"runs"`
	Rounds              int `json:"rounds"`
	ForwardResolved     int `json:"forward_resolved"`
	ForwardRejectedRuns int `json:"forward_rejected_runs"`
	BackwardResolved    int `json:"backward_resolved"`
	BackwardRejected    int `json:"backward_rejected"`
	Unresolved          int `json:"unresolved"`
}

// Resolved is the number of records that received ids.
func (s Stats) Resolved() int {
	return s.ForwardResolved + s.BackwardResolved
}

// RunOutcome describes how one corrupted run of the input ended up.
type RunOutcome struct {
	Start            int `json:"start"`
	Length           int `json:"length"`
	ForwardResolved  int `json:"forward_resolved"`
	BackwardResolved int `json:"backward_resolved"`
	Unresolved       int `json:"unresolved"`
}

// Status labels the outcome for display.
func (o RunOutcome) Status() string {
	switch {
	case o.Unresolved == o.Length:
		return "unresolved"
	case o.Unresolved > 0:
		return "partial"
	case o.BackwardResolved == 0:
		return "forward"
	case o.ForwardResolved == 0:
		return "backward"
	default:
		return "mixed"
	}
}

// Result carries the repaired sequence plus diagnostics.
type Result struct {
	Frames []frames.Frame
	Stats  Stats
	Runs   []RunOutcome
}

// Engine repairs corrupted video/subject id pairs using frame continuity.
type Engine struct {
	logger *slog.Logger
	opts   Options
}

// NewEngine constructs an engine. A nil logger discards diagnostics.
func NewEngine(logger *slog.Logger, opts Options) *Engine {
	if opts.MaxRounds < 1 {
		opts.MaxRounds = 1
	}
	return &Engine{logger: logging.NewComponentLogger(logger, "repair"), opts: opts}
}

// Repair returns a copy of seq with every corrupted id pair either replaced by
// a neighbour's ids that passed the continuity check or left corrupted. The
// input slice is never modified. An error is returned only when verification
// finds a resolved record that breaks the continuity invariant; no partial
// result is returned in that case.
func (e *Engine) Repair(ctx context.Context, seq []frames.Frame) (Result, error) {
	logger := logging.WithContext(ctx, e.logger)
	stats := Stats{Records: len(seq), CorruptedBefore: frames.CountCorrupted(seq)}
	current := frames.Clone(seq)
	resolution := make(map[int]pass)

	var outcomes []RunOutcome
	for round := 0; round < e.opts.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		ws := newWorkingSet(current)
		corrupted := ws.corruptedRuns()
		if len(corrupted) == 0 {
			break
		}
		if round == 0 {
			stats.WorkingSet = len(ws.entries)
			stats.Runs = len(corrupted)
			outcomes = runOutcomes(ws, corrupted)
		}
		stats.Rounds++

		fwd, rejectedRuns := ws.forwardPass()
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		bwd, rejected := ws.backwardPass()

		if violations := ws.verify(); len(violations) > 0 {
			err := reconciliationError(violations)
			logging.ErrorWithContext(logger, "identifier repair failed verification", "repair_reconciliation",
				logging.Int("violations", len(violations)),
				logging.String(logging.FieldErrorHint, "inspect the reported frame range manually"),
				logging.Error(err),
			)
			return Result{}, err
		}

		stats.ForwardResolved += fwd
		stats.ForwardRejectedRuns += rejectedRuns
		stats.BackwardResolved += bwd
		stats.BackwardRejected += rejected
		for _, en := range ws.entries {
			if en.resolvedBy != passNone {
				resolution[en.index] = en.resolvedBy
			}
		}
		current = ws.merge(current)
		if fwd+bwd == 0 {
			break
		}
	}

	stats.Unresolved = frames.CountCorrupted(current)
	for i := range outcomes {
		o := &outcomes[i]
		for idx := o.Start; idx < o.Start+o.Length; idx++ {
			switch resolution[idx] {
			case passForward:
				o.ForwardResolved++
			case passBackward:
				o.BackwardResolved++
			default:
				o.Unresolved++
			}
		}
	}

	e.report(logger, stats)
	return Result{Frames: current, Stats: stats, Runs: outcomes}, nil
}

// runOutcomes seeds one outcome per corrupted run, addressed by full-sequence
// index. Runs are contiguous in the full sequence because every gap between
// two corrupted records contributes at least one valid neighbour.
func runOutcomes(ws *workingSet, corrupted []run) []RunOutcome {
	out := make([]RunOutcome, 0, len(corrupted))
	for _, r := range corrupted {
		out = append(out, RunOutcome{Start: ws.entries[r.start].index, Length: r.length()})
	}
	return out
}

func (e *Engine) report(logger *slog.Logger, stats Stats) {
	attrs := []logging.Attr{
		logging.Int("records", stats.Records),
		logging.Int("corrupted_before", stats.CorruptedBefore),
		logging.Int("runs", stats.Runs),
		logging.Int("forward_resolved", stats.ForwardResolved),
		logging.Int("backward_resolved", stats.BackwardResolved),
		logging.Int("unresolved", stats.Unresolved),
	}
	if stats.Unresolved == 0 {
		attrs = append(attrs, logging.String(logging.FieldEventType, "repair_complete"))
		logger.Info("all id missing values were successfully replaced", logging.Args(attrs...)...)
		return
	}
	attrs = append(attrs,
		logging.String(logging.FieldErrorHint, "unresolved records are dropped by the filter stage"),
		logging.String(logging.FieldImpact, "frames without ids are excluded from aggregates"),
	)
	logging.WarnWithContext(logger, "some id missing values could not be replaced", "repair_unresolved", attrs...)
}
