package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrRunNotFound is returned when no run matches the requested id.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousRun is returned when an id prefix matches several runs.
	ErrAmbiguousRun = errors.New("run id prefix is ambiguous")
)

// BeginRun records a new run in the running state.
func (s *Store) BeginRun(ctx context.Context, id string, sources []string, configPath string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("run id is required")
	}
	encoded, err := encodeSources(sources)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, status, sources_json, config_path, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(StatusRunning), encoded, nullableString(configPath), formatTime(now),
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{
		ID:         id,
		Status:     StatusRunning,
		Sources:    append([]string(nil), sources...),
		ConfigPath: configPath,
		StartedAt:  now,
	}, nil
}

// MarkStage records the stage a running run has reached.
func (s *Store) MarkStage(ctx context.Context, id, stage string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET last_stage = ? WHERE id = ? AND status = ?`,
		nullableString(stage), id, string(StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("update run stage: %w", err)
	}
	return requireAffected(res, id)
}

// CompleteRun finalizes a run as completed with its counts.
func (s *Store) CompleteRun(ctx context.Context, id string, counts Counts) error {
	return s.finish(ctx, id, StatusCompleted, "", counts, nil)
}

// FailRun finalizes a run as failed or review. The stage names where it
// stopped; cause supplies the stored message.
func (s *Store) FailRun(ctx context.Context, id string, status Status, stage string, counts Counts, cause error) error {
	if status != StatusFailed && status != StatusReview {
		return fmt.Errorf("invalid failure status %q", status)
	}
	return s.finish(ctx, id, status, stage, counts, cause)
}

func (s *Store) finish(ctx context.Context, id string, status Status, stage string, counts Counts, cause error) error {
	var msg sql.NullString
	if cause != nil {
		msg = nullableString(cause.Error())
	}
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx, `UPDATE runs SET
			status = ?, last_stage = COALESCE(?, last_stage), finished_at = ?,
			records = ?, duplicates = ?, corrupted_ids = ?, resolved_ids = ?, unresolved_ids = ?,
			subjects_removed = ?, output_frames = ?, bins = ?, error_message = ?
		WHERE id = ?`,
		string(status), nullableString(stage), nullableTime(&now),
		counts.Records, counts.Duplicates, counts.CorruptedIDs, counts.ResolvedIDs, counts.UnresolvedIDs,
		counts.SubjectsRemoved, counts.OutputFrames, counts.Bins, msg,
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetRun fetches a run by full id or unique id prefix.
func (s *Store) GetRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	ctx = ensureContext(ctx)
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, idOrPrefix)
	run, err := scanRun(row)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run: %w", err)
	}

	pattern := escapeLike(idOrPrefix) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' ORDER BY started_at DESC LIMIT 2`, pattern)
	if err != nil {
		return nil, fmt.Errorf("get run by prefix: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, idOrPrefix)
	}
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

// ListRuns returns runs newest first. A limit of zero or less returns all
// runs; statuses, when given, restrict the result.
func (s *Store) ListRuns(ctx context.Context, limit int, statuses ...Status) ([]*Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Prune deletes finished runs beyond the newest keep runs. Bin rows go with
// them. Running entries are never pruned. A keep of zero or less disables
// pruning.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM runs
		WHERE status != ?
		AND id NOT IN (SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?)`,
		string(StatusRunning), keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
