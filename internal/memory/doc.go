// Package memory keeps a thumbnailer run inside its memory budget.
//
// Decoding a large TIFF master can allocate hundreds of megabytes, and a
// run processes thousands of them back to back. Two tools help:
//
//   - [ConfigureFromEnv] sets GOMEMLIMIT from MEMORY_LIMIT (bytes or a
//     humanized size such as "4000M" or "2GiB") scaled by MEMORY_RATIO.
//   - [Guard] is checked before each file. When heap use crosses the
//     critical watermark it forces a collection and waits until usage drops
//     below the high watermark, the context ends, or MaxWait elapses.
//
// GOMEMLIMIT is a soft limit that only covers the Go heap. libvips
// allocates outside it, so lower MEMORY_RATIO when RESIZE_BACKEND=vips:
//
//	| Backend  | Recommended MEMORY_RATIO |
//	|----------|--------------------------|
//	| imaging  | 0.85 (default)           |
//	| vips     | 0.60                     |
package memory
