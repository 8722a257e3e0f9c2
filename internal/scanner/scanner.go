package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"thumbnailer/internal/filesystem"
	"thumbnailer/internal/logging"
	"thumbnailer/internal/mediatypes"
	"thumbnailer/internal/pathmap"

	"github.com/spf13/afero"
)

// Scanner lists files matching an extension allow-list and a filename
// keep-pattern.
type Scanner struct {
	fs        afero.Fs
	storeRoot string
	exts      mediatypes.ExtensionSet
	keep      *regexp.Regexp
	retry     filesystem.RetryConfig
}

// New creates a scanner. Paths in the returned records are relative to
// storeRoot; keep may be nil to accept every name.
func New(fs afero.Fs, storeRoot string, exts mediatypes.ExtensionSet, keep *regexp.Regexp) *Scanner {
	return &Scanner{
		fs:        fs,
		storeRoot: filepath.Clean(storeRoot),
		exts:      exts,
		keep:      keep,
		retry:     filesystem.DefaultRetryConfig(),
	}
}

// DroppedWatch is a watch directory that could not be read.
type DroppedWatch struct {
	Watch mediatypes.WatchSpec
	Err   error
}

// CheckWatches splits watches into readable ones and the ones to drop.
func (s *Scanner) CheckWatches(watches []mediatypes.WatchSpec) ([]mediatypes.WatchSpec, []DroppedWatch) {
	var readable []mediatypes.WatchSpec
	var dropped []DroppedWatch

	for _, w := range watches {
		if err := s.readable(w.Root); err != nil {
			dropped = append(dropped, DroppedWatch{Watch: w, Err: err})
			continue
		}
		readable = append(readable, w)
	}
	return readable, dropped
}

func (s *Scanner) readable(dir string) error {
	f, err := filesystem.OpenWithRetry(s.fs, dir, s.retry)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Matches reports whether a path passes the extension and name filters.
func (s *Scanner) Matches(path string) bool {
	if !s.exts.Contains(mediatypes.ExtensionOf(filepath.Base(path))) {
		return false
	}
	if s.keep != nil && !s.keep.MatchString(filepath.ToSlash(path)) {
		return false
	}
	return true
}

// Scan walks every watch and returns the matching files sorted by path.
// A file reachable from two watches is reported once.
func (s *Scanner) Scan(ctx context.Context, watches []mediatypes.WatchSpec) ([]mediatypes.FileRecord, error) {
	seen := make(map[string]struct{})
	var records []mediatypes.FileRecord

	for _, w := range watches {
		root := filepath.Clean(w.Root)
		logging.Debug("Scanning %s", w)

		err := afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				logging.Warn("Skipping %s: %v", path, err)
				if info != nil && info.IsDir() && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if info.IsDir() {
				if path != root && !w.Recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if !info.Mode().IsRegular() || !s.Matches(path) {
				return nil
			}
			if _, dup := seen[path]; dup {
				return nil
			}

			rec, recErr := s.record(path, info)
			if recErr != nil {
				logging.Warn("Skipping %s: %v", path, recErr)
				return nil
			}
			seen[path] = struct{}{}
			records = append(records, rec)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan of %s failed: %w", root, err)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].SourcePath < records[j].SourcePath
	})
	return records, nil
}

func (s *Scanner) record(path string, info os.FileInfo) (mediatypes.FileRecord, error) {
	relDir, err := pathmap.RelativeToRoot(filepath.Dir(path), s.storeRoot)
	if err != nil {
		return mediatypes.FileRecord{}, err
	}
	name := filepath.Base(path)
	return mediatypes.FileRecord{
		SourcePath: path,
		Name:       name,
		Extension:  mediatypes.ExtensionOf(name),
		RelDir:     relDir,
		Size:       info.Size(),
		ModTime:    info.ModTime(),
	}, nil
}

