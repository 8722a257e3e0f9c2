package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"thumbnailer/internal/filesystem"
	"thumbnailer/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// sniffLen is the number of header bytes filetype needs to match every
// type it knows.
const sniffLen = 261

// ErrNotImage is returned when a file's content is not a recognized image,
// whatever its extension says.
var ErrNotImage = errors.New("not an image")

// Dimensions holds image width and height in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// Prober reads image headers without decoding pixel data.
type Prober struct {
	fs    afero.Fs
	retry filesystem.RetryConfig
}

// NewProber creates a Prober reading from fs.
func NewProber(fs afero.Fs) *Prober {
	return &Prober{fs: fs, retry: filesystem.DefaultRetryConfig()}
}

// Dimensions returns the pixel size of the image at path. The content is
// sniffed first so a mislabelled file fails fast with ErrNotImage.
func (p *Prober) Dimensions(path string) (Dimensions, error) {
	file, err := filesystem.OpenWithRetry(p.fs, path, p.retry)
	if err != nil {
		return Dimensions{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Dimensions{}, fmt.Errorf("read header: %w", err)
	}
	head = head[:n]

	if !filetype.IsImage(head) {
		kind, _ := filetype.Match(head)
		return Dimensions{}, fmt.Errorf("%w: %s detected as %q", ErrNotImage, path, kind.MIME.Value)
	}

	config, format, err := image.DecodeConfig(io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		return Dimensions{}, fmt.Errorf("decode header of %s: %w", path, err)
	}
	logging.Debug("Image %s is %s %dx%d", path, format, config.Width, config.Height)

	return Dimensions{Width: config.Width, Height: config.Height}, nil
}
