package memory

import (
	"math"
	"runtime/debug"
	"strconv"
	"strings"

	"thumbnailer/internal/logging"
	"thumbnailer/internal/metrics"

	"github.com/dustin/go-humanize"
)

// DefaultMemoryRatio is the share of MEMORY_LIMIT given to the Go heap.
const DefaultMemoryRatio = 0.85

// ConfigResult holds the result of memory configuration
type ConfigResult struct {
	// Configured indicates whether GOMEMLIMIT is in effect
	Configured bool

	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	Source string

	// ContainerLimit is the parsed MEMORY_LIMIT in bytes (0 if not set)
	ContainerLimit int64

	// GoMemLimit is the effective GOMEMLIMIT in bytes (0 if not set)
	GoMemLimit int64

	// Ratio is the memory ratio used (0 if not applicable)
	Ratio float64
}

// ParseLimit parses a byte size given as a plain integer or in humanized
// form ("4000M", "2GiB"). Single-letter units are binary, matching the
// convention of the memoryLimit setting this replaces.
func ParseLimit(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if len(s) > 1 {
		switch last := s[len(s)-1]; last {
		case 'K', 'k', 'M', 'm', 'G', 'g', 'T', 't':
			if _, err := strconv.ParseFloat(s[:len(s)-1], 64); err == nil {
				s += "iB"
			}
		}
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt64 {
		return math.MaxInt64, nil
	}
	return int64(n), nil
}

// ConfigureFromEnv sets GOMEMLIMIT from the environment. Call it before
// the run starts allocating.
//
// Environment variables:
//   - GOMEMLIMIT: if set, the Go runtime already applied it and it wins
//   - MEMORY_LIMIT: total memory available to the process
//   - MEMORY_RATIO: share of MEMORY_LIMIT for the Go heap (default 0.85)
func ConfigureFromEnv(getenv func(string) string) ConfigResult {
	result := ConfigResult{Source: "none"}

	if goMemLimitEnv := getenv("GOMEMLIMIT"); goMemLimitEnv != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = "GOMEMLIMIT"
			result.GoMemLimit = limit
			metrics.GoMemLimit.Set(float64(limit))
		}
		logging.Info("GOMEMLIMIT set via environment: %s", goMemLimitEnv)
		return result
	}

	memLimitStr := getenv("MEMORY_LIMIT")
	if memLimitStr == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return result
	}

	memLimit, err := ParseLimit(memLimitStr)
	if err != nil || memLimit <= 0 {
		logging.Warn("Failed to parse MEMORY_LIMIT %q: %v", memLimitStr, err)
		return result
	}
	result.ContainerLimit = memLimit

	ratio := DefaultMemoryRatio
	if ratioStr := getenv("MEMORY_RATIO"); ratioStr != "" {
		parsed, err := strconv.ParseFloat(ratioStr, 64)
		switch {
		case err != nil:
			logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", ratioStr, err, DefaultMemoryRatio)
		case parsed <= 0 || parsed > 1.0:
			logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", ratioStr, DefaultMemoryRatio)
		default:
			ratio = parsed
		}
	}
	result.Ratio = ratio

	goMemLimit := int64(float64(memLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)
	metrics.GoMemLimit.Set(float64(goMemLimit))

	result.Configured = true
	result.Source = "MEMORY_LIMIT"
	result.GoMemLimit = goMemLimit

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s)",
		humanize.IBytes(uint64(goMemLimit)), ratio*100, humanize.IBytes(uint64(memLimit)))

	return result
}
