// Command emotrace repairs, filters and aggregates facial emotion sensor logs.
//
// Run `emotrace run` to execute the full pipeline over the configured per-video
// CSV files, `emotrace repair` to only restore corrupted subject identifiers,
// and `emotrace runs` to browse the recorded run history.
package main
