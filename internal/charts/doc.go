// Package charts renders PNG charts of binned emotion metrics, missing
// emotion shares, frame counts and time coverage using gonum/plot.
package charts
