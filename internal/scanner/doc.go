// Package scanner enumerates candidate source files under the watch
// directories. It produces one immutable snapshot per run.
package scanner
