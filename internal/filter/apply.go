package filter

import (
	"context"
	"log/slog"

	"emotrace/internal/frames"
	"emotrace/internal/ingest"
	"emotrace/internal/logging"
)

// Result carries the filtered frames and what each step removed.
type Result struct {
	Frames           []frames.Frame    `json:"-"`
	Shares           Shares            `json:"shares"`
	Unresolved       int               `json:"unresolved"`
	Removal          Removal           `json:"removal"`
	MissingEmotions  int               `json:"missing_emotions"`
	CanonicalDropped ingest.DedupStats `json:"canonical_dropped"`
}

// Apply runs every filtering step in order and logs the outcome of each.
func Apply(ctx context.Context, logger *slog.Logger, src []frames.Frame, threshold float64) (Result, error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "filter"))
	var res Result

	current, unresolved := DropUnresolved(src)
	res.Unresolved = unresolved
	if unresolved > 0 {
		logging.WarnWithContext(logger, "dropped records with unrecoverable ids", "unresolved_dropped",
			logging.Int("records", unresolved),
			logging.String(logging.FieldImpact, "frames without a subject are excluded from aggregates"),
			logging.String(logging.FieldErrorHint, "run `emotrace repair` to review the affected runs"),
		)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res.Shares = MissingEmotionShares(current)
	for _, v := range res.Shares.Videos {
		logger.Debug("missing emotion share",
			logging.Args(
				logging.Int(logging.FieldVideoID, v.VideoID),
				logging.Float64("percent", v.Percent),
				logging.Int("records", v.Records),
			)...,
		)
	}

	current, res.Removal = RemoveSubjects(current, threshold)
	for _, v := range res.Removal.Videos {
		logger.Info("subjects removed for missing emotions",
			logging.Args(
				logging.String(logging.FieldEventType, "subjects_removed"),
				logging.Int(logging.FieldVideoID, v.VideoID),
				logging.Int("before", v.Before),
				logging.Int("after", v.After),
				logging.Float64("removed_percent", v.RemovedPercent),
			)...,
		)
	}
	logger.Info("subject removal complete",
		logging.Args(
			logging.String(logging.FieldEventType, "subjects_removed_total"),
			logging.Float64("threshold", threshold),
			logging.Int("removed", len(res.Removal.Removed)),
			logging.Float64("removed_percent", res.Removal.RemovedPercent),
		)...,
	)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	current, res.MissingEmotions = DropMissingEmotions(current)
	current, res.CanonicalDropped = Canonicalize(current)
	logger.Info("filtering complete",
		logging.Args(
			logging.String(logging.FieldEventType, "filter_complete"),
			logging.Int("input", len(src)),
			logging.Int("output", len(current)),
			logging.Int("missing_emotion_records", res.MissingEmotions),
			logging.Int("duplicates", res.CanonicalDropped.Total()),
		)...,
	)
	res.Frames = current
	return res, nil
}
