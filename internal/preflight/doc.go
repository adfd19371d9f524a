// Package preflight provides readiness checks for the filesystem paths that
// emotrace depends on.
//
// These checks run in two contexts:
//   - The pipeline checks the output and state directories before a run takes
//     its lock, so a read-only mount fails fast instead of after repair.
//   - The CLI "emotrace config validate" command runs RunAll to display the
//     state of every directory and configured source file.
package preflight
