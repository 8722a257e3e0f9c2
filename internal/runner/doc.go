// Package runner drives one thumbnailing run.
//
// A run moves through a fixed sequence of states:
//
//	NotStarted → AcquiringLock → {LockHeld | LockContended} → Scanning →
//	Filtering → Processing → ShuttingDown → Terminated
//
// The lock file guarantees a single active run. A lock held by another run
// ends this one silently; a lock older than the staleness threshold also
// alerts the administrator once. Once the lock is held, ShuttingDown always
// runs: it writes the final run log line and removes the lock, whatever
// happened in between.
//
// Quota exhaustion and lock contention are normal endings. Only conditions
// that prevent any work (unusable thumbnails directory, no readable watch
// directory) are returned as errors; [ExitCode] maps them to process exit
// codes.
package runner
