package media

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"thumbnailer/internal/filesystem"
	"thumbnailer/internal/logging"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
)

// ImagingResizer resizes in pure Go.
type ImagingResizer struct {
	fs      afero.Fs
	quality int
	retry   filesystem.RetryConfig
}

// NewImagingResizer creates an ImagingResizer encoding JPEGs at quality.
func NewImagingResizer(fs afero.Fs, quality int) *ImagingResizer {
	return &ImagingResizer{fs: fs, quality: quality, retry: filesystem.DefaultRetryConfig()}
}

// Name implements Resizer.
func (r *ImagingResizer) Name() string { return BackendImaging }

// Resize implements Resizer.
func (r *ImagingResizer) Resize(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	format, err := outputFormat(req)
	if err != nil {
		return err
	}

	src, err := filesystem.OpenWithRetry(r.fs, req.Source, r.retry)
	if err != nil {
		return err
	}
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if closeErr := src.Close(); closeErr != nil {
		logging.Debug("failed to close %s: %v", req.Source, closeErr)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", req.Source, err)
	}

	thumb := imaging.Resize(img, req.Width, req.Height, imaging.Lanczos)
	logging.Debug("Resized %s from %dx%d to %dx%d", filepath.Base(req.Source),
		img.Bounds().Dx(), img.Bounds().Dy(), thumb.Bounds().Dx(), thumb.Bounds().Dy())

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format, imaging.JPEGQuality(r.quality)); err != nil {
		return fmt.Errorf("encode %s: %w", req.Dest, err)
	}

	return WriteFileAtomic(r.fs, req.Dest, buf.Bytes())
}

// outputFormat picks the encoder from the request format, falling back to
// the destination extension.
func outputFormat(req Request) (imaging.Format, error) {
	name := req.Format
	if name == "" {
		name = filepath.Ext(req.Dest)
	}
	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		return 0, fmt.Errorf("output format %q: %w", name, err)
	}
	return format, nil
}
