// Package quota enforces the per-run file count and byte volume limits.
//
// A file is admitted only while both budgets have room for it, and only
// thumbnails actually written are charged. A budget that reaches zero ends
// the run.
package quota
