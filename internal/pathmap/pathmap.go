package pathmap

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MappingError reports a source path that is not inside the root it was
// mapped against.
type MappingError struct {
	Source string
	Root   string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("path %q is not inside root %q", e.Source, e.Root)
}

// RelativeToRoot strips root from source exactly once and returns the
// remainder in slash form, "" when source equals root.
func RelativeToRoot(source, root string) (string, error) {
	cleanSource := filepath.Clean(source)
	cleanRoot := filepath.Clean(root)

	rel, err := filepath.Rel(cleanRoot, cleanSource)
	if err != nil {
		return "", &MappingError{Source: source, Root: root}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &MappingError{Source: source, Root: root}
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// IsWithin reports whether p is dir itself or lies below it.
func IsWithin(p, dir string) bool {
	_, err := RelativeToRoot(p, dir)
	return err == nil
}

// DestinationPath maps source (below sourceRoot) to the same relative
// location below destRoot with its extension replaced by outputExt.
func DestinationPath(source, sourceRoot, destRoot, outputExt string) (string, error) {
	rel, err := RelativeToRoot(source, sourceRoot)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", &MappingError{Source: source, Root: sourceRoot}
	}

	dir, name := filepath.Split(filepath.FromSlash(rel))
	return filepath.Join(destRoot, dir, ReplaceExtension(name, outputExt)), nil
}

// ReplaceExtension swaps the final extension of name for ext. A name
// without an extension gets ext appended.
func ReplaceExtension(name, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	stem := name
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		stem = name[:i]
	}
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}
