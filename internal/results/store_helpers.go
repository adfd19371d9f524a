package results

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const runColumns = `id, status, sources_json, config_path, last_stage, started_at, finished_at,
	records, duplicates, corrupted_ids, resolved_ids, unresolved_ids, subjects_removed,
	output_frames, bins, error_message`

type rowScanner interface {
	Scan(dest ...any) error
}

func nullableString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTimeString(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func encodeSources(sources []string) (string, error) {
	if sources == nil {
		sources = []string{}
	}
	data, err := json.Marshal(sources)
	if err != nil {
		return "", fmt.Errorf("encode sources: %w", err)
	}
	return string(data), nil
}

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run         Run
		status      string
		sourcesJSON string
		configPath  sql.NullString
		lastStage   sql.NullString
		startedAt   string
		finishedAt  sql.NullString
		errorMsg    sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&status,
		&sourcesJSON,
		&configPath,
		&lastStage,
		&startedAt,
		&finishedAt,
		&run.Counts.Records,
		&run.Counts.Duplicates,
		&run.Counts.CorruptedIDs,
		&run.Counts.ResolvedIDs,
		&run.Counts.UnresolvedIDs,
		&run.Counts.SubjectsRemoved,
		&run.Counts.OutputFrames,
		&run.Counts.Bins,
		&errorMsg,
	); err != nil {
		return nil, err
	}

	run.Status = Status(status)
	run.ConfigPath = configPath.String
	run.LastStage = lastStage.String
	run.ErrorMessage = errorMsg.String

	if sourcesJSON != "" {
		if err := json.Unmarshal([]byte(sourcesJSON), &run.Sources); err != nil {
			return nil, fmt.Errorf("decode sources for run %s: %w", run.ID, err)
		}
	}

	ts, err := parseTimeString(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at for run %s: %w", run.ID, err)
	}
	run.StartedAt = ts

	if finishedAt.Valid && finishedAt.String != "" {
		ts, err := parseTimeString(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at for run %s: %w", run.ID, err)
		}
		run.FinishedAt = &ts
	}
	return &run, nil
}
