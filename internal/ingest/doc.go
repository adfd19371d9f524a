// Package ingest reads per-video sensor logs into frames.
//
// Files are CSV with a header row; columns are mapped by name so extra
// columns (an exported index, for example) are ignored. Cells holding the
// corruption sentinel, or nothing at all, become corrupted values rather than
// errors. Each file is deduplicated on load before files are concatenated in
// source order.
package ingest
