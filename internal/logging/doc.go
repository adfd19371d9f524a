// Package logging assembles structured slog loggers and formatting helpers used
// across emotrace stages.
//
// It owns the console and JSON handlers, level parsing, output fan-out to the
// state directory log file, and context-aware helpers so stage code tags every
// line with the run id, stage, and video being processed. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
