// Package aggregate derives per-frame features and emotion metrics, summary
// statistics, and per-video time-binned metric means.
//
// Input is expected in canonical order (video, subject, frame, millisecond)
// with ids repaired and missing emotion readings removed. Statistics use gonum.
package aggregate
