package media

import (
	"context"
	"fmt"
	"strings"

	"thumbnailer/internal/mediatypes"

	"github.com/spf13/afero"
)

// Backend names accepted by NewResizer.
const (
	BackendImaging = "imaging"
	BackendVips    = "vips"
)

// DefaultJPEGQuality matches the quality ImageMagick uses when none is
// given.
const DefaultJPEGQuality = 90

// Request describes one resize. Exactly one of Width and Height is set;
// the other is zero and follows from the aspect ratio.
type Request struct {
	Source string
	Dest   string
	Format string
	Width  int
	Height int
}

// Resizer produces a resized copy of an image.
type Resizer interface {
	Resize(ctx context.Context, req Request) error
	Name() string
}

// ResizeTarget fixes the larger side of a width x height image to the
// profile box and leaves the other side zero.
func ResizeTarget(dims Dimensions, profile mediatypes.Profile) (width, height int) {
	if dims.Width >= dims.Height {
		return profile.Width, 0
	}
	return 0, profile.Height
}

// NewResizer returns the resizer for backend.
func NewResizer(backend string, fs afero.Fs, quality int) (Resizer, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	switch strings.ToLower(backend) {
	case "", BackendImaging:
		return NewImagingResizer(fs, quality), nil
	case BackendVips:
		return NewVipsResizer(fs, quality)
	default:
		return nil, fmt.Errorf("unknown resize backend %q", backend)
	}
}
