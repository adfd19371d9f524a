package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"emotrace/internal/aggregate"
	"emotrace/internal/config"
	"emotrace/internal/frames"
	"emotrace/internal/logging"
	"emotrace/internal/preflight"
	"emotrace/internal/results"
	"emotrace/internal/stage"
)

// ErrRunInProgress is returned when another process holds the run lock.
var ErrRunInProgress = errors.New("another emotrace run is in progress")

// Pipeline executes runs against one configuration.
type Pipeline struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *results.Store
	configPath string
}

// New constructs a pipeline. store may be nil to skip run history.
func New(cfg *config.Config, logger *slog.Logger, store *results.Store) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{cfg: cfg, logger: logger, store: store}
}

// SetConfigPath records the configuration file the run was loaded from.
func (p *Pipeline) SetConfigPath(path string) {
	p.configPath = strings.TrimSpace(path)
}

// runState carries intermediate data between stages.
type runState struct {
	report   *Report
	frames   []frames.Frame
	repaired []frames.Frame
	obs      []aggregate.Observation
}

type stageHandler func(ctx context.Context, logger *slog.Logger, st *runState) error

// Run executes the stages of opts.Mode in order. The returned report is
// populated as far as the run got, including on failure.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeFull
	}
	runID := strings.TrimSpace(opts.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	sources := opts.Sources
	if len(sources) == 0 {
		sources = p.cfg.SourceFiles()
	}
	if len(sources) == 0 {
		return nil, stage.Wrap(stage.ErrConfiguration, StageIngest, "resolve sources", "no source files configured", nil)
	}

	if err := p.cfg.EnsureDirectories(); err != nil {
		return nil, stage.Wrap(stage.ErrIO, "", "prepare directories", "", err)
	}
	for _, check := range []preflight.Result{
		preflight.CheckDirectoryAccess("output directory", p.cfg.Paths.OutputDir),
		preflight.CheckDirectoryAccess("state directory", p.cfg.Paths.StateDir),
	} {
		if !check.Passed {
			return nil, stage.Wrap(stage.ErrConfiguration, "", "preflight", check.Name+": "+check.Detail, nil)
		}
	}
	lock := flock.New(p.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, ErrRunInProgress
	}

	ctx = stage.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	st := &runState{report: &Report{
		RunID:   runID,
		Mode:    mode,
		Status:  results.StatusRunning,
		Sources: append([]string(nil), sources...),
	}}

	if p.store != nil {
		if _, err := p.store.BeginRun(ctx, runID, sources, p.configPath); err != nil {
			return nil, stage.Wrap(stage.ErrIO, "", "record run", "", err)
		}
	}

	runStart := time.Now()
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("mode", string(mode)),
		logging.Int("sources", len(sources)),
		logging.String("output_dir", p.cfg.Paths.OutputDir),
	)

	for _, name := range mode.Stages() {
		if err := p.executeStage(ctx, name, st); err != nil {
			p.fail(ctx, st, name, err)
			return st.report, err
		}
	}

	st.report.Status = results.StatusCompleted
	st.report.Counts = st.counts()
	p.persistSuccess(ctx, logger, st)

	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("frames", st.report.Counts.OutputFrames),
		logging.Int("outputs", len(st.report.Outputs)),
		logging.Duration("run_duration", time.Since(runStart)),
	)
	return st.report, nil
}

func (p *Pipeline) executeStage(ctx context.Context, name string, st *runState) error {
	stageCtx := stage.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, p.logger)

	if reason := p.skipReason(name, st.report.Mode); reason != "" {
		stageLogger.Info("stage skipped",
			logging.String(logging.FieldEventType, "stage_skip"),
			logging.String("reason", reason),
		)
		st.report.Stages = append(st.report.Stages, StageTiming{Name: name, Skipped: true})
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.store != nil {
		if err := p.store.MarkStage(stageCtx, st.report.RunID, name); err != nil {
			logging.WarnWithContext(stageLogger, "failed to record stage progress", "results_persist",
				logging.String(logging.FieldImpact, "run history shows an older stage"),
				logging.String(logging.FieldErrorHint, "check the results database in the state directory"),
				logging.Error(err),
			)
		}
	}

	stageStart := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("records", len(st.frames)),
	)

	if err := p.handler(name)(stageCtx, stageLogger, st); err != nil {
		return err
	}

	elapsed := time.Since(stageStart)
	st.report.Stages = append(st.report.Stages, StageTiming{Name: name, Duration: elapsed})
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("records", len(st.frames)),
		logging.Duration("stage_duration", elapsed),
	)
	return nil
}

func (p *Pipeline) handler(name string) stageHandler {
	switch name {
	case StageIngest:
		return p.runIngest
	case StageRepair:
		return p.runRepair
	case StageFilter:
		return p.runFilter
	case StageAggregate:
		return p.runAggregate
	case StageCharts:
		return p.runCharts
	case StageExport:
		return p.runExport
	default:
		return func(context.Context, *slog.Logger, *runState) error {
			return stage.Wrap(stage.ErrConfiguration, name, "dispatch", "unknown stage", nil)
		}
	}
}

func (p *Pipeline) skipReason(name string, mode Mode) string {
	switch name {
	case StageCharts:
		if !p.cfg.Charts.Enabled {
			return "charts disabled"
		}
	case StageExport:
		if mode == ModeFull && !p.cfg.Export.CSV && !p.cfg.Export.Workbook {
			return "csv and workbook export disabled"
		}
	}
	return ""
}

func (p *Pipeline) fail(ctx context.Context, st *runState, name string, err error) {
	status := results.StatusFailed
	if stage.FailureOutcome(err) == stage.OutcomeReview {
		status = results.StatusReview
	}
	report := st.report
	report.Status = status
	report.FailedAt = name
	report.Error = err.Error()
	report.Counts = st.counts()

	stageCtx := stage.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, p.logger)
	if errors.Is(err, context.Canceled) {
		stageLogger.Info("run cancelled", logging.String(logging.FieldEventType, "run_cancelled"))
	} else {
		logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
			logging.String("resolved_status", string(status)),
			logging.String(logging.FieldErrorHint, failureHint(status)),
			logging.Error(err),
		)
	}

	if p.store == nil {
		return
	}
	// Record the failure even when ctx was the cause.
	persistCtx := context.WithoutCancel(stageCtx)
	if perr := p.store.FailRun(persistCtx, report.RunID, status, name, report.Counts, err); perr != nil {
		stageLogger.Error("failed to persist run failure", logging.Error(perr))
	}
}

func failureHint(status results.Status) string {
	if status == results.StatusReview {
		return "inspect the source files with `emotrace inspect` and rerun"
	}
	return "rerun with --log-level debug for details"
}

func (p *Pipeline) persistSuccess(ctx context.Context, logger *slog.Logger, st *runState) {
	if p.store == nil {
		return
	}
	report := st.report
	warn := func(msg string, err error) {
		logging.WarnWithContext(logger, msg, "results_persist",
			logging.String(logging.FieldImpact, "outputs were written but run history is incomplete"),
			logging.String(logging.FieldErrorHint, "check the results database in the state directory"),
			logging.Error(err),
		)
	}
	if report.Bins != nil {
		if err := p.store.SaveBins(ctx, report.RunID, report.Bins.Cells); err != nil {
			warn("failed to store bin metrics", err)
		}
	}
	if err := p.store.CompleteRun(ctx, report.RunID, report.Counts); err != nil {
		warn("failed to record run completion", err)
		return
	}
	removed, err := p.store.Prune(ctx, p.cfg.Results.KeepRuns)
	if err != nil {
		warn("failed to prune run history", err)
		return
	}
	if removed > 0 {
		logger.Info("run history pruned",
			logging.String(logging.FieldEventType, "results_pruned"),
			logging.Int("removed", removed),
			logging.Int("keep_runs", p.cfg.Results.KeepRuns),
		)
	}
}

func (st *runState) counts() results.Counts {
	r := st.report
	c := results.Counts{
		CorruptedIDs:  r.Repair.CorruptedBefore,
		ResolvedIDs:   r.Repair.Resolved(),
		UnresolvedIDs: r.Repair.Unresolved,
		OutputFrames:  len(st.frames),
	}
	for _, f := range r.Files {
		c.Records += f.Read.Rows
		c.Duplicates += f.Duplicates.Total()
	}
	if r.Filter != nil {
		c.SubjectsRemoved = len(r.Filter.Removal.Removed)
	}
	if r.Bins != nil {
		c.Bins = len(r.Bins.Cells)
	}
	return c
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
