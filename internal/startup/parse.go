package startup

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"thumbnailer/internal/mediatypes"
)

// flatSuffix marks a watch entry that is scanned without recursion.
const flatSuffix = ":flat"

// SplitList splits a comma-separated setting, dropping blank entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseByteLimit parses a size such as "10GiB", "500MB" or "1048576".
// Zero means unlimited.
func ParseByteLimit(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > uint64(1<<63-1) {
		return 0, fmt.Errorf("size %q is too large", s)
	}
	return int64(n), nil
}

// ParseWatchList parses store-relative watch entries. "/" is the store
// root itself and a ":flat" suffix disables recursion. Duplicate
// directories keep their first entry.
func ParseWatchList(storeRoot, s string) ([]mediatypes.WatchSpec, error) {
	entries := SplitList(s)
	if len(entries) == 0 {
		return nil, fmt.Errorf("no watch directories given")
	}

	seen := make(map[string]bool, len(entries))
	watches := make([]mediatypes.WatchSpec, 0, len(entries))
	for _, entry := range entries {
		recursive := true
		if strings.HasSuffix(entry, flatSuffix) {
			recursive = false
			entry = strings.TrimSuffix(entry, flatSuffix)
		}
		rel := filepath.Clean("/" + strings.TrimSpace(entry))
		root := filepath.Join(storeRoot, rel)
		if seen[root] {
			continue
		}
		seen[root] = true
		watches = append(watches, mediatypes.WatchSpec{Root: root, Recursive: recursive})
	}
	return watches, nil
}

// ParseProfiles parses "name=WxH[@subdir]" entries. A profile without a
// subdir writes to thumbsDir. Names and destination directories must be
// unique so two profiles never overwrite each other.
func ParseProfiles(thumbsDir, s string) ([]mediatypes.Profile, error) {
	entries := SplitList(s)
	if len(entries) == 0 {
		return nil, fmt.Errorf("no thumbnail sizes given")
	}

	names := make(map[string]bool, len(entries))
	dirs := make(map[string]string, len(entries))
	profiles := make([]mediatypes.Profile, 0, len(entries))
	for _, entry := range entries {
		p, err := parseProfile(thumbsDir, entry)
		if err != nil {
			return nil, err
		}
		if names[p.Name] {
			return nil, fmt.Errorf("duplicate profile name %q", p.Name)
		}
		if other, ok := dirs[p.Dir]; ok {
			return nil, fmt.Errorf("profiles %q and %q share directory %s", other, p.Name, p.Dir)
		}
		names[p.Name] = true
		dirs[p.Dir] = p.Name
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func parseProfile(thumbsDir, entry string) (mediatypes.Profile, error) {
	name, rest, ok := strings.Cut(entry, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return mediatypes.Profile{}, fmt.Errorf("invalid size %q: want name=WxH[@subdir]", entry)
	}

	size, subdir, _ := strings.Cut(rest, "@")
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(size)), "x")
	if !ok {
		return mediatypes.Profile{}, fmt.Errorf("invalid size %q: want WxH", entry)
	}
	w, werr := strconv.Atoi(ws)
	h, herr := strconv.Atoi(hs)
	if werr != nil || herr != nil || w <= 0 || h <= 0 {
		return mediatypes.Profile{}, fmt.Errorf("invalid size %q: dimensions must be positive integers", entry)
	}

	dir := thumbsDir
	if subdir = strings.TrimSpace(subdir); subdir != "" {
		rel := filepath.Clean(subdir)
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
			return mediatypes.Profile{}, fmt.Errorf("invalid size %q: subdir must stay inside the thumbnails directory", entry)
		}
		dir = filepath.Join(thumbsDir, rel)
	}

	return mediatypes.Profile{Name: name, Width: w, Height: h, Dir: dir}, nil
}
