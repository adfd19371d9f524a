// Package stage holds the cross-cutting vocabulary shared by pipeline stages:
// context annotations (run id, stage name, video id) and the error markers used
// to classify stage failures.
//
// Stage code should wrap failures with Wrap so the pipeline can decide whether a
// run failed outright or needs manual review, and so every message carries the
// stage and operation that produced it.
package stage
