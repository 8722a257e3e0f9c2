// Package media reads image dimensions and produces resized copies.
//
// Two resize backends implement Resizer:
//   - ImagingResizer: pure Go, using github.com/disintegration/imaging
//   - VipsResizer: libvips through govips, for very large TIFF masters
//
// Both write through WriteFileAtomic so an interrupted run never leaves a
// partial thumbnail behind.
package media
