package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/afero"
)

// DefaultStaleAfter is the age at which a lock is considered abandoned.
const DefaultStaleAfter = time.Hour

// Marker is the first line written into a lock file.
const Marker = "thumbnailer running"

// ContendedError is returned by Acquire when the lock file already exists.
type ContendedError struct {
	Path    string
	ModTime time.Time
	Age     time.Duration
}

func (e *ContendedError) Error() string {
	return fmt.Sprintf("lock %s already held (age %s)", e.Path, e.Age.Round(time.Second))
}

// IsStale reports whether the existing lock is at least threshold old.
func (e *ContendedError) IsStale(threshold time.Duration) bool {
	return e.Age >= threshold
}

// IsContended reports whether err is a *ContendedError.
func IsContended(err error) bool {
	var c *ContendedError
	return errors.As(err, &c)
}

// Token is a held lock. Release it exactly once, normally via defer.
type Token struct {
	fs       afero.Fs
	path     string
	acquired time.Time
	released bool
}

// Acquire creates the lock file at path. If it already exists a
// *ContendedError describing its age relative to now is returned; any other
// failure is returned wrapped.
func Acquire(fsys afero.Fs, path string, now time.Time) (*Token, error) {
	f, err := fsys.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) || os.IsExist(err) {
			info, statErr := Inspect(fsys, path, now)
			if statErr != nil {
				return nil, fmt.Errorf("lock %s exists but cannot be inspected: %w", path, statErr)
			}
			return nil, &ContendedError{Path: path, ModTime: info.ModTime, Age: info.Age}
		}
		return nil, fmt.Errorf("failed to create lock %s: %w", path, err)
	}

	body := fmt.Sprintf("%s\npid %d\nstarted %s\n", Marker, os.Getpid(), now.Format(time.RFC3339))
	_, writeErr := f.WriteString(body)
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = fsys.Remove(path)
		return nil, fmt.Errorf("failed to write lock %s: %w", path, err)
	}

	return &Token{fs: fsys, path: path, acquired: now}, nil
}

// Path returns the lock file location.
func (t *Token) Path() string {
	return t.path
}

// AcquiredAt returns the time passed to Acquire.
func (t *Token) AcquiredAt() time.Time {
	return t.acquired
}

// Release removes the lock file. Releasing twice is a no-op.
func (t *Token) Release() error {
	if t == nil || t.released {
		return nil
	}
	t.released = true
	if err := t.fs.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock %s: %w", t.path, err)
	}
	return nil
}

// Info describes the lock file as found on disk.
type Info struct {
	Exists  bool
	ModTime time.Time
	Age     time.Duration
}

// IsStale reports whether an existing lock is at least threshold old.
func (i Info) IsStale(threshold time.Duration) bool {
	return i.Exists && i.Age >= threshold
}

// Inspect stats the lock file without modifying it.
func Inspect(fsys afero.Fs, path string, now time.Time) (Info, error) {
	st, err := fsys.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, nil
		}
		return Info{}, err
	}
	age := now.Sub(st.ModTime())
	if age < 0 {
		age = 0
	}
	return Info{Exists: true, ModTime: st.ModTime(), Age: age}, nil
}

// Remove deletes the lock file regardless of who created it. It is the
// manual operator cleanup for a stale lock.
func Remove(fsys afero.Fs, path string) error {
	if err := fsys.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
