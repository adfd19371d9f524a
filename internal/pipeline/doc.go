// Package pipeline runs the emotrace stages end to end.
//
// A run loads the per-video sources, repairs corrupted identifiers, filters
// subjects with too many missing emotion readings, aggregates the emotion
// metrics into time bins, renders charts and writes the exports. Every run
// gets a uuid that is attached to the context (and therefore to every log
// line), is recorded in the results store when one is configured, and holds
// a file lock in the state directory so two runs never share outputs.
package pipeline
