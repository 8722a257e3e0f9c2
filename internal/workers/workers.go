package workers

import (
	"runtime"
	"strconv"
	"strings"
)

// OverrideEnv names the environment variable that fixes the codec thread
// count.
const OverrideEnv = "VIPS_CONCURRENCY"

// MaxCodecThreads caps ForCodec; more threads than this do not speed up
// a single resize.
const MaxCodecThreads = 8

// Count returns GOMAXPROCS scaled by multiplier, at least 1 and at most
// limit (0 for no limit). A positive integer override replaces the
// calculation but is still capped by limit.
func Count(override string, multiplier float64, limit int) int {
	if override = strings.TrimSpace(override); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	// GOMAXPROCS follows the container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCodec returns the libvips thread count: one per CPU, capped at
// MaxCodecThreads, overridden by VIPS_CONCURRENCY.
func ForCodec(getenv func(string) string) int {
	return Count(getenv(OverrideEnv), 1.0, MaxCodecThreads)
}
