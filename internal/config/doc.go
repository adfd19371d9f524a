// Package config loads, normalizes, and validates emotrace configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the EMOTRACE_DATA_DIR environment
// fallback. The Config type centralizes every knob the pipeline and CLI need,
// from source file discovery through filtering thresholds to output toggles.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
