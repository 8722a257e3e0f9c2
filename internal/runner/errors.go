package runner

import (
	"context"
	"errors"

	"thumbnailer/internal/startup"
)

var (
	// ErrThumbnailsInaccessible means the thumbnails directory could not be
	// created, read or written.
	ErrThumbnailsInaccessible = errors.New("thumbnails directory is not accessible")

	// ErrLockUnusable means the lock file could not be created for a reason
	// other than another run holding it.
	ErrLockUnusable = errors.New("lock file cannot be created")

	// ErrNoWatches means none of the watch directories could be read.
	ErrNoWatches = errors.New("no readable watch directories")
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitConfig       = 1
	ExitInaccessible = 2
	ExitNoWatches    = 3
	ExitFailure      = 4
	ExitInterrupted  = 130
)

// ExitCode maps the error returned by a run, or by configuration loading,
// to the process exit code. Quota exhaustion and lock contention return a
// nil error and therefore ExitOK.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case startup.IsConfigError(err):
		return ExitConfig
	case errors.Is(err, ErrThumbnailsInaccessible), errors.Is(err, ErrLockUnusable):
		return ExitInaccessible
	case errors.Is(err, ErrNoWatches):
		return ExitNoWatches
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}
