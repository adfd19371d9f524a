package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"

	"emotrace/internal/aggregate"
	"emotrace/internal/charts"
	"emotrace/internal/export"
	"emotrace/internal/filter"
	"emotrace/internal/ingest"
	"emotrace/internal/logging"
	"emotrace/internal/repair"
	"emotrace/internal/stage"
)

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (p *Pipeline) runIngest(ctx context.Context, _ *slog.Logger, st *runState) error {
	loader := ingest.NewLoader(p.logger, ingest.Options{Sentinel: p.cfg.Ingest.Sentinel})
	ds, err := loader.Load(ctx, st.report.Sources)
	if err != nil {
		switch {
		case isCancellation(err):
			return err
		case errors.Is(err, fs.ErrNotExist):
			return stage.Wrap(stage.ErrNotFound, StageIngest, "load sources", "source file missing", err)
		case errors.Is(err, ingest.ErrMalformedRow), errors.Is(err, ingest.ErrMissingColumn):
			return stage.Wrap(stage.ErrValidation, StageIngest, "load sources", "", err)
		default:
			return stage.Wrap(stage.ErrIO, StageIngest, "load sources", "", err)
		}
	}
	if len(ds.Frames) == 0 {
		return stage.Wrap(stage.ErrValidation, StageIngest, "load sources", "sources contain no records", nil)
	}
	st.report.Files = ds.Files
	st.frames = ds.Frames
	return nil
}

func (p *Pipeline) runRepair(ctx context.Context, _ *slog.Logger, st *runState) error {
	engine := repair.NewEngine(p.logger, repair.Options{MaxRounds: p.cfg.Repair.MaxRounds})
	res, err := engine.Repair(ctx, st.frames)
	if err != nil {
		if isCancellation(err) {
			return err
		}
		return stage.Wrap(stage.ErrInvariant, StageRepair, "verify continuity", "", err)
	}
	st.report.Repair = res.Stats
	st.report.RepairRuns = res.Runs
	st.frames = res.Frames
	st.repaired = res.Frames
	return nil
}

func (p *Pipeline) runFilter(ctx context.Context, _ *slog.Logger, st *runState) error {
	res, err := filter.Apply(ctx, p.logger, st.frames, p.cfg.Filter.MissingEmotionThreshold)
	if err != nil {
		return err
	}
	if len(res.Frames) == 0 {
		return stage.Wrap(stage.ErrValidation, StageFilter, "apply filters", "no frames left after filtering", nil)
	}
	st.report.Filter = &res
	st.frames = res.Frames
	return nil
}

func (p *Pipeline) runAggregate(ctx context.Context, logger *slog.Logger, st *runState) error {
	obs := aggregate.Derive(st.frames)
	summary := aggregate.Summarize(obs)
	table, err := aggregate.Bin(obs, p.cfg.Binning.BinCount)
	if err != nil {
		if errors.Is(err, aggregate.ErrNoFrames) {
			return stage.Wrap(stage.ErrValidation, StageAggregate, "bin frames", "", err)
		}
		return stage.Wrap(stage.ErrIO, StageAggregate, "bin frames", "", err)
	}

	for _, v := range summary.Videos {
		videoLogger := logging.WithContext(stage.WithVideoID(ctx, v.VideoID), p.logger)
		videoLogger.Info("video summarized",
			logging.String(logging.FieldEventType, "video_summary"),
			logging.Int("frames", v.Frames),
			logging.Int("subjects", v.Subjects),
			logging.Int("min_ms", v.MinMS),
			logging.Int("max_ms", v.MaxMS),
			logging.Int("bins", len(table.Video(v.VideoID))),
		)
	}
	logger.Info("time bins computed",
		logging.String(logging.FieldEventType, "bins_computed"),
		logging.Int("bin_count", table.Count),
		logging.Int("cells", len(table.Cells)),
		logging.Float64("time_diff_mean_ms", summary.TimeDiff.Mean),
	)

	st.obs = obs
	st.report.Summary = &summary
	st.report.Bins = &table
	return nil
}

func (p *Pipeline) runCharts(ctx context.Context, logger *slog.Logger, st *runState) error {
	renderer := charts.NewRenderer(logger, p.cfg.Paths.OutputDir, st.report.RunID, charts.Options{
		WidthCM:  p.cfg.Charts.WidthCM,
		HeightCM: p.cfg.Charts.HeightCM,
	})
	collect := func(kind charts.Kind, paths []string, err error) error {
		switch {
		case errors.Is(err, charts.ErrNoData):
			logger.Debug("chart skipped", logging.String("kind", string(kind)))
			return nil
		case err != nil:
			return stage.Wrap(stage.ErrIO, StageCharts, "render "+string(kind), "", err)
		}
		st.report.Outputs = append(st.report.Outputs, paths...)
		return nil
	}
	single := func(path string, err error) ([]string, error) {
		if path == "" {
			return nil, err
		}
		return []string{path}, err
	}

	if st.report.Bins != nil {
		paths, err := renderer.EmotionEvolution(*st.report.Bins)
		if err := collect(charts.KindEmotionEvolution, paths, err); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if st.report.Filter != nil {
		paths, err := single(renderer.MissingEmotions(st.report.Filter.Shares))
		if err := collect(charts.KindMissingEmotions, paths, err); err != nil {
			return err
		}
	}
	paths, err := single(renderer.FrameCounts(st.obs, charts.DefaultHistogramBins))
	if err := collect(charts.KindFrameCounts, paths, err); err != nil {
		return err
	}
	paths, err = renderer.TimeDistribution(st.obs, charts.DefaultHistogramBins)
	return collect(charts.KindTimeDistribution, paths, err)
}

func (p *Pipeline) runExport(ctx context.Context, logger *slog.Logger, st *runState) error {
	dir := p.cfg.Paths.OutputDir
	prefix := shortID(st.report.RunID)
	name := func(suffix string) string {
		return filepath.Join(dir, prefix+"_"+suffix)
	}
	written := func(path string, err error) error {
		if err != nil {
			return stage.Wrap(stage.ErrIO, StageExport, "write "+filepath.Base(path), "", err)
		}
		logger.Info("export written",
			logging.String(logging.FieldEventType, "export_written"),
			logging.String("path", path),
		)
		st.report.Outputs = append(st.report.Outputs, path)
		return nil
	}

	if p.cfg.Export.CSV || st.report.Mode == ModeRepair {
		path := name("repaired.csv")
		if err := written(path, export.WriteFramesCSV(path, st.repaired, p.cfg.Ingest.Sentinel)); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.cfg.Export.CSV && st.report.Filter != nil {
		path := name("filtered.csv")
		if err := written(path, export.WriteFramesCSV(path, st.report.Filter.Frames, p.cfg.Ingest.Sentinel)); err != nil {
			return err
		}
	}
	if p.cfg.Export.CSV && st.report.Bins != nil {
		path := name("bins.csv")
		if err := written(path, export.WriteBinsCSV(path, *st.report.Bins)); err != nil {
			return err
		}
	}
	if p.cfg.Export.Workbook && st.report.Bins != nil && st.report.Filter != nil && st.report.Summary != nil {
		path := name("emotrace.xlsx")
		wb := export.Workbook{
			RunID:   st.report.RunID,
			Bins:    *st.report.Bins,
			Removal: st.report.Filter.Removal,
			Summary: *st.report.Summary,
		}
		if err := written(path, export.WriteWorkbook(path, wb)); err != nil {
			return err
		}
	}
	return nil
}
