// Package results persists pipeline run history in SQLite.
//
// Each run records its status, source files, per-stage counts and failure
// message; completed runs also keep their binned metric table so past
// results can be listed and compared without rerunning the pipeline. The
// store applies WAL pragmas, guards against schema drift with a version
// table, and retries writes that hit SQLITE_BUSY with exponential backoff.
package results
