package candidates

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"thumbnailer/internal/filesystem"
	"thumbnailer/internal/logging"
	"thumbnailer/internal/mediatypes"
	"thumbnailer/internal/pathmap"

	"github.com/spf13/afero"
)

// Reason names the rule that excluded a file.
type Reason string

const (
	ReasonExtension    Reason = "extension"
	ReasonName         Reason = "name"
	ReasonThumbnails   Reason = "thumbnails_tree"
	ReasonVanished     Reason = "vanished"
	ReasonUnreadable   Reason = "unreadable"
	ReasonRawDuplicate Reason = "raw_duplicate"
	ReasonOutsideStore Reason = "outside_store"
	ReasonThumbnailed  Reason = "already_thumbnailed"
	ReasonKnownProblem Reason = "known_problem"
)

// Reasons lists every exclusion reason in pipeline order.
var Reasons = []Reason{
	ReasonExtension,
	ReasonName,
	ReasonThumbnails,
	ReasonVanished,
	ReasonUnreadable,
	ReasonRawDuplicate,
	ReasonOutsideStore,
	ReasonThumbnailed,
	ReasonKnownProblem,
}

// Options configures a Filter.
type Options struct {
	StoreRoot     string
	ThumbnailsDir string
	Extensions    mediatypes.ExtensionSet
	// Keep must match the slash-separated path for a file to be kept. Nil
	// keeps every name.
	Keep         *regexp.Regexp
	OutputFormat string

	RawSuffix    string
	MasterSuffix string
	// RawAllowedFolders are directories, absolute or relative to the store
	// root, where raw files are thumbnailed even when a master exists.
	RawAllowedFolders []string
	// KnownProblemFiles are source paths, absolute or relative to the store
	// root, that are never attempted.
	KnownProblemFiles []string

	// OverwriteOlder re-selects a file whose thumbnail is older than the
	// source. Off by default: an existing thumbnail is final.
	OverwriteOlder bool
}

// Candidate is a file selected for thumbnailing together with its
// destination for the profile it was selected against.
type Candidate struct {
	mediatypes.FileRecord
	Destination string
}

// Selection is the result of one Select call.
type Selection struct {
	Candidates []Candidate
	Excluded   map[Reason]int
	// Unreadable lists files that exist but could not be opened.
	Unreadable []string
}

// Total returns the number of excluded files.
func (s Selection) Total() int {
	n := 0
	for _, c := range s.Excluded {
		n += c
	}
	return n
}

// Filter applies the selection rules against a filesystem.
type Filter struct {
	fs           afero.Fs
	opts         Options
	retry        filesystem.RetryConfig
	knownProblem map[string]struct{}
}

// New creates a Filter.
func New(fs afero.Fs, opts Options) *Filter {
	opts.StoreRoot = filepath.Clean(opts.StoreRoot)
	opts.ThumbnailsDir = filepath.Clean(opts.ThumbnailsDir)

	known := make(map[string]struct{}, len(opts.KnownProblemFiles))
	for _, p := range opts.KnownProblemFiles {
		known[absUnder(opts.StoreRoot, p)] = struct{}{}
	}

	return &Filter{
		fs:           fs,
		opts:         opts,
		retry:        filesystem.DefaultRetryConfig(),
		knownProblem: known,
	}
}

func absUnder(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// Select returns the files that need a thumbnail for profile, sorted by
// source path.
func (f *Filter) Select(files []mediatypes.FileRecord, profile mediatypes.Profile) Selection {
	sel := Selection{Excluded: make(map[Reason]int)}

	sorted := make([]mediatypes.FileRecord, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SourcePath < sorted[j].SourcePath
	})

	for _, rec := range sorted {
		dest, reason := f.check(rec, profile)
		if reason != "" {
			sel.Excluded[reason]++
			if reason == ReasonUnreadable {
				sel.Unreadable = append(sel.Unreadable, rec.SourcePath)
			}
			logging.Debug("Excluded %s: %s", rec.SourcePath, reason)
			continue
		}
		sel.Candidates = append(sel.Candidates, Candidate{FileRecord: rec, Destination: dest})
	}

	return sel
}

// check runs the pipeline for one file. It returns the destination path
// when the file is kept, or the reason it was excluded.
func (f *Filter) check(rec mediatypes.FileRecord, profile mediatypes.Profile) (string, Reason) {
	if !f.opts.Extensions.Contains(rec.Extension) {
		return "", ReasonExtension
	}
	if f.opts.Keep != nil && !f.opts.Keep.MatchString(filepath.ToSlash(rec.SourcePath)) {
		return "", ReasonName
	}
	if f.inThumbnailsTree(rec.SourcePath, profile) {
		return "", ReasonThumbnails
	}
	if reason := f.checkReadable(rec.SourcePath); reason != "" {
		return "", reason
	}
	if f.isRedundantRaw(rec) {
		return "", ReasonRawDuplicate
	}

	dest, err := pathmap.DestinationPath(rec.SourcePath, f.opts.StoreRoot, profile.Dir, f.opts.OutputFormat)
	if err != nil {
		logging.Warn("Cannot map %s to a thumbnail path: %v", rec.SourcePath, err)
		return "", ReasonOutsideStore
	}
	if f.alreadyThumbnailed(rec, dest) {
		return "", ReasonThumbnailed
	}

	if _, known := f.knownProblem[filepath.Clean(rec.SourcePath)]; known {
		return "", ReasonKnownProblem
	}
	return dest, ""
}

func (f *Filter) inThumbnailsTree(path string, profile mediatypes.Profile) bool {
	return pathmap.IsWithin(path, f.opts.ThumbnailsDir) || pathmap.IsWithin(path, profile.Dir)
}

func (f *Filter) checkReadable(path string) Reason {
	file, err := filesystem.OpenWithRetry(f.fs, path, f.retry)
	if err != nil {
		if os.IsNotExist(err) {
			return ReasonVanished
		}
		logging.Warn("Cannot read file %s: %v", path, err)
		return ReasonUnreadable
	}
	if err := file.Close(); err != nil {
		logging.Debug("failed to close %s: %v", path, err)
	}
	return ""
}

// MasterSibling returns the master file that a raw file duplicates, or ""
// if name does not carry the raw suffix.
func MasterSibling(path, rawSuffix, masterSuffix string) string {
	if rawSuffix == "" {
		return ""
	}
	dir, name := filepath.Split(path)
	ext := mediatypes.ExtensionOf(name)
	if ext == "" {
		return ""
	}
	stem := strings.TrimSuffix(name, "."+ext)
	if !strings.HasSuffix(stem, rawSuffix) || len(stem) == len(rawSuffix) {
		return ""
	}
	base := strings.TrimSuffix(stem, rawSuffix)
	return filepath.Join(dir, base+masterSuffix+"."+ext)
}

func (f *Filter) isRedundantRaw(rec mediatypes.FileRecord) bool {
	master := MasterSibling(rec.SourcePath, f.opts.RawSuffix, f.opts.MasterSuffix)
	if master == "" {
		return false
	}
	exists, err := filesystem.Exists(f.fs, master, f.retry)
	if err != nil {
		logging.Debug("Cannot check master %s: %v", master, err)
		return false
	}
	if !exists {
		return false
	}
	return !f.rawAllowed(rec)
}

func (f *Filter) rawAllowed(rec mediatypes.FileRecord) bool {
	for _, folder := range f.opts.RawAllowedFolders {
		folder = strings.TrimSpace(folder)
		if folder == "" {
			continue
		}
		if filepath.IsAbs(folder) {
			if pathmap.IsWithin(rec.Dir(), folder) {
				return true
			}
			continue
		}
		rel := strings.Trim(filepath.ToSlash(folder), "/")
		if rel == "" || rec.RelDir == rel || strings.HasPrefix(rec.RelDir, rel+"/") {
			return true
		}
	}
	return false
}

func (f *Filter) alreadyThumbnailed(rec mediatypes.FileRecord, dest string) bool {
	info, err := filesystem.StatWithRetry(f.fs, dest, f.retry)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Debug("Cannot stat thumbnail %s: %v", dest, err)
		}
		return false
	}
	if f.opts.OverwriteOlder && rec.ModTime.After(info.ModTime()) {
		logging.Debug("Thumbnail %s is older than its source, selecting again", dest)
		return false
	}
	return true
}
