// Package lock implements the single-instance lock file.
//
// The lock is a plain file created with O_EXCL, so two near-simultaneous
// launches cannot both succeed. Its modification time is the run start; a
// lock older than the staleness threshold means an earlier run died without
// cleaning up, and only an operator may remove it.
package lock
