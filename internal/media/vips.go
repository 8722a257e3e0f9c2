package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"thumbnailer/internal/logging"
	"thumbnailer/internal/workers"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/spf13/afero"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
	vipsShutdown    bool
)

// InitVips starts libvips once per process. govips cannot restart after
// ShutdownVips, so a call after shutdown returns an error.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}
	if vipsShutdown {
		return fmt.Errorf("libvips already shut down")
	}

	// vips logging must be configured before Startup
	threshold := vipsThreshold(logging.GetLevel())
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		forwardVipsLog(threshold, domain, level, msg)
	}, threshold)

	// one image at a time, but libvips threads within an image
	threads := workers.ForCodec(os.Getenv)
	vips.Startup(&vips.Config{
		ConcurrencyLevel: threads,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s, %d threads)", vips.Version, threads)
	return nil
}

// vipsThreshold keeps libvips one step quieter than the application: debug
// shows vips info, info shows vips warnings, and so on.
func vipsThreshold(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelWarn:
		return vips.LogLevelError
	case logging.LevelError:
		return vips.LogLevelCritical
	default:
		return vips.LogLevelWarning
	}
}

// forwardVipsLog routes a libvips message to the matching logging level.
// Lower vips levels carry higher severity.
func forwardVipsLog(threshold vips.LogLevel, domain string, level vips.LogLevel, msg string) {
	if level > threshold {
		return
	}
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[%s] %s", domain, msg)
	default:
		logging.Debug("[%s] %s", domain, msg)
	}
}

// ShutdownVips releases libvips. It is called once at process exit.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		vipsShutdown = true
		logging.Info("libvips shutdown complete")
	}
}

// VipsResizer resizes through libvips thumbnail, which shrinks during
// decode where the format allows it (JPEG, WebP, TIFF pyramids).
type VipsResizer struct {
	fs      afero.Fs
	quality int
}

// NewVipsResizer starts libvips and returns a resizer using it.
func NewVipsResizer(fs afero.Fs, quality int) (*VipsResizer, error) {
	if err := InitVips(); err != nil {
		return nil, err
	}
	return &VipsResizer{fs: fs, quality: quality}, nil
}

// Name implements Resizer.
func (r *VipsResizer) Name() string { return BackendVips }

// Resize implements Resizer.
func (r *VipsResizer) Resize(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !IsVipsAvailable() {
		return fmt.Errorf("libvips not available")
	}

	data, err := afero.ReadFile(r.fs, req.Source)
	if err != nil {
		return err
	}

	// thumbnail_buffer shrinks while decoding and applies EXIF orientation
	width, height := thumbnailBox(req.Width, req.Height)
	ref, err := vips.NewThumbnailFromBuffer(data, width, height, vips.InterestingNone)
	if err != nil {
		return fmt.Errorf("vips failed to thumbnail %s: %w", req.Source, err)
	}
	defer ref.Close()

	logging.Debug("Vips thumbnailed %s to %dx%d", filepath.Base(req.Source), ref.Width(), ref.Height())

	out, err := r.export(ref, req)
	if err != nil {
		return err
	}
	return WriteFileAtomic(r.fs, req.Dest, out)
}

func (r *VipsResizer) export(ref *vips.ImageRef, req Request) ([]byte, error) {
	name := req.Format
	if name == "" {
		name = filepath.Ext(req.Dest)
	}

	var (
		out []byte
		err error
	)
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "jpg", "jpeg":
		out, _, err = ref.ExportJpeg(&vips.JpegExportParams{
			Quality:        r.quality,
			StripMetadata:  false,
			OptimizeCoding: true,
		})
	case "png":
		out, _, err = ref.ExportPng(vips.NewPngExportParams())
	case "tif", "tiff":
		out, _, err = ref.ExportTiff(vips.NewTiffExportParams())
	case "webp":
		out, _, err = ref.ExportWebp(vips.NewWebpExportParams())
	default:
		return nil, fmt.Errorf("output format %q not supported by vips backend", name)
	}
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}
	return out, nil
}

// vipsMaxCoord is the largest image dimension libvips accepts.
const vipsMaxCoord = 10000000

// thumbnailBox turns a one-sided target into the bounding box vips
// thumbnail wants. The free side is left unbounded so the fixed side
// decides the scale.
func thumbnailBox(targetWidth, targetHeight int) (width, height int) {
	switch {
	case targetWidth > 0:
		return targetWidth, vipsMaxCoord
	case targetHeight > 0:
		return vipsMaxCoord, targetHeight
	default:
		return vipsMaxCoord, vipsMaxCoord
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}
