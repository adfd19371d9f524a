// Package repair reconstructs corrupted video/subject id pairs in an ordered
// frame log.
//
// The engine restricts work to corrupted records and their immediate
// neighbours, groups them into runs, and tries two fills: a forward fill kept
// only when the largest frame step across the whole run is exactly one, then a
// backward fill kept per record when the step to the next record of the same
// subject is exactly one. Anything that fails both stays corrupted for the
// filter stage. A final verification refuses to return a result in which a
// resolved record breaks the continuity check.
package repair
