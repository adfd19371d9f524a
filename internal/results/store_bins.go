package results

import (
	"context"
	"fmt"

	"emotrace/internal/aggregate"
)

// SaveBins replaces the stored bin table for a run.
func (s *Store) SaveBins(ctx context.Context, runID string, cells []aggregate.BinMetric) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin bins tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM bin_metrics WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("clear bins: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO bin_metrics
			(run_id, video_id, bin, start_ms, end_ms, samples, metric_1, metric_2, metric_3)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare bin insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range cells {
			if _, err := stmt.ExecContext(ctx, runID, c.VideoID, c.Bin, c.StartMS, c.EndMS, c.Samples,
				c.Metric1, c.Metric2, c.Metric3); err != nil {
				return fmt.Errorf("insert bin %d/%d: %w", c.VideoID, c.Bin, err)
			}
		}
		return tx.Commit()
	})
}

// BinsForRun returns the stored bins of a run ordered by video then bin.
func (s *Store) BinsForRun(ctx context.Context, runID string) ([]aggregate.BinMetric, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT video_id, bin, start_ms, end_ms, samples, metric_1, metric_2, metric_3
		FROM bin_metrics WHERE run_id = ? ORDER BY video_id, bin`, runID)
	if err != nil {
		return nil, fmt.Errorf("query bins: %w", err)
	}
	defer rows.Close()

	var out []aggregate.BinMetric
	for rows.Next() {
		var c aggregate.BinMetric
		if err := rows.Scan(&c.VideoID, &c.Bin, &c.StartMS, &c.EndMS, &c.Samples,
			&c.Metric1, &c.Metric2, &c.Metric3); err != nil {
			return nil, fmt.Errorf("scan bin: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
