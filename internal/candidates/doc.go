// Package candidates decides which scanned files still need a thumbnail.
//
// Select applies, in order: extension allow-list, filename keep-pattern,
// thumbnails-tree exclusion, readability, raw/master deduplication,
// already-thumbnailed exclusion and the known-problem denylist. Every rule
// only removes files, so the order changes the exclusion counts but never
// the resulting set.
package candidates
