package mediatypes

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultFileTypes are the extensions thumbnailed when none are configured.
var DefaultFileTypes = []string{"jpg", "jpeg", "tif", "tiff"}

// MimeTypes maps lower-case extensions (without dot) to MIME types for the
// formats the resizer can read or write.
var MimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
}

// WatchSpec is a directory scanned for source images.
type WatchSpec struct {
	// Root is the absolute directory to scan.
	Root string
	// Recursive descends into subdirectories when true.
	Recursive bool
}

func (w WatchSpec) String() string {
	if w.Recursive {
		return w.Root
	}
	return w.Root + " (flat)"
}

// FileRecord describes one source file found by a scan.
type FileRecord struct {
	SourcePath string
	Name       string
	// Extension is the original suffix without the dot, case preserved.
	Extension string
	// RelDir is the directory relative to the image store root, slash
	// separated, "" for the root itself.
	RelDir  string
	Size    int64
	ModTime time.Time
}

// Dir returns the absolute directory containing the file.
func (r FileRecord) Dir() string {
	return filepath.Dir(r.SourcePath)
}

// Profile is a named thumbnail size and the directory tree it is written to.
type Profile struct {
	Name   string
	Width  int
	Height int
	// Dir is the destination root for this profile.
	Dir string
}

func (p Profile) String() string {
	return fmt.Sprintf("%s (%dx%d -> %s)", p.Name, p.Width, p.Height, p.Dir)
}

// NormalizeExtension lower-cases ext and strips any leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ExtensionOf returns the extension of name without the dot, case
// preserved. Names without a dot, or dot-files like ".hidden", have none.
func ExtensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i+1:]
}

// ExtensionSet is a case-insensitive allow-list of file extensions.
type ExtensionSet map[string]struct{}

// NewExtensionSet builds a set from extensions given with or without dots.
func NewExtensionSet(exts []string) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, e := range exts {
		if n := NormalizeExtension(e); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports whether ext is allowed.
func (s ExtensionSet) Contains(ext string) bool {
	_, ok := s[NormalizeExtension(ext)]
	return ok
}

// Sorted returns the extensions in lexical order.
func (s ExtensionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// GetMimeType returns the MIME type for an extension, or
// "application/octet-stream" if unknown.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[NormalizeExtension(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}
