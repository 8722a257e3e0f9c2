package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"thumbnailer/internal/logging"

	"github.com/spf13/afero"
)

// Volume labels used by the thumbnailer.
const (
	VolumeStore      = "store"
	VolumeThumbnails = "thumbnails"
	VolumeUnknown    = "unknown"
)

// VolumeResolver maps file paths to volume names by longest-prefix match.
type VolumeResolver struct {
	// sorted by path length descending
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute, with trailing slash
	name string
}

// NewVolumeResolver creates a resolver from volume name to directory.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, p := range volumes {
		absPath, err := filepath.Abs(p)
		if err != nil {
			absPath = p
		}
		if !strings.HasSuffix(absPath, "/") {
			absPath += "/"
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume name for path, or VolumeUnknown.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return VolumeUnknown
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return VolumeUnknown
	}

	for _, mount := range vr.mounts {
		if strings.HasPrefix(absPath+"/", mount.path) {
			return mount.name
		}
	}

	return VolumeUnknown
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver when set.
	VolumeResolver *VolumeResolver

	sleep func(time.Duration)
}

// DefaultRetryConfig returns the defaults used for NFS-backed stores.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

func (c *RetryConfig) pause(d time.Duration) {
	if c.sleep != nil {
		c.sleep(d)
		return
	}
	time.Sleep(d)
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs fn until it succeeds, fails with a non-ESTALE error, or
// the retry budget is spent.
func withRetry(op, path string, config RetryConfig, fn func() error) error {
	start := time.Now()
	volume := config.resolveVolume(path)
	obs := observe()
	backoff := config.InitialBackoff

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
				if obs != nil {
					obs.ObserveRetrySuccess(op, volume)
				}
			}
			if obs != nil {
				obs.ObserveOperation(volume, op, time.Since(start).Seconds(), nil)
			}
			return nil
		}

		lastErr = err
		if !isNFSStaleError(err) {
			if obs != nil {
				obs.ObserveOperation(volume, op, time.Since(start).Seconds(), err)
			}
			return err
		}

		if obs != nil {
			obs.ObserveStaleError(op, volume)
		}

		// no sleep after the last attempt
		if attempt < config.MaxRetries {
			if obs != nil {
				obs.ObserveRetryAttempt(op, volume)
			}
			logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, config.MaxRetries)
			config.pause(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, lastErr)
	if obs != nil {
		obs.ObserveRetryFailure(op, volume)
		obs.ObserveOperation(volume, op, time.Since(start).Seconds(), lastErr)
	}
	return lastErr
}

// StatWithRetry performs fs.Stat with retry on ESTALE.
func StatWithRetry(fs afero.Fs, path string, config RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := withRetry("stat", path, config, func() error {
		var statErr error
		info, statErr = fs.Stat(path)
		return statErr
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// OpenWithRetry performs fs.Open with retry on ESTALE.
func OpenWithRetry(fs afero.Fs, path string, config RetryConfig) (afero.File, error) {
	var file afero.File
	err := withRetry("open", path, config, func() error {
		var openErr error
		file, openErr = fs.Open(path)
		return openErr
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Exists reports whether path exists. Errors other than not-exist are
// returned so callers can tell "absent" from "unknown".
func Exists(fs afero.Fs, path string, config RetryConfig) (bool, error) {
	_, err := StatWithRetry(fs, path, config)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
