package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"time"

	"thumbnailer/internal/logging"
	"thumbnailer/internal/metrics"

	"github.com/dustin/go-humanize"
)

// Config holds Guard thresholds.
type Config struct {
	// LimitBytes is the reference limit; 0 uses GOMEMLIMIT when set
	LimitBytes int64

	// HighWaterMark is the usage ratio below which a paused run resumes
	HighWaterMark float64

	// CriticalWaterMark is the usage ratio at which a run pauses
	CriticalWaterMark float64

	// PollInterval is how often usage is re-checked while paused
	PollInterval time.Duration

	// MaxWait bounds a single pause; the run continues afterwards
	MaxWait time.Duration
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		PollInterval:      500 * time.Millisecond,
		MaxWait:           30 * time.Second,
	}
}

// Guard pauses a sequential run while heap usage is critical.
type Guard struct {
	config   Config
	limit    int64
	readHeap func() uint64
	collect  func()
}

// NewGuard creates a Guard. Without a limit it never pauses.
func NewGuard(config Config) *Guard {
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < math.MaxInt64 {
			limit = goMemLimit
		}
	}
	if limit > 0 {
		logging.Debug("Memory guard using limit %s", humanize.IBytes(uint64(limit)))
	}

	return &Guard{
		config:   config,
		limit:    limit,
		readHeap: heapAlloc,
		collect:  debug.FreeOSMemory,
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Usage returns heap usage as a ratio of the limit, or 0 without one.
func (g *Guard) Usage() float64 {
	if g.limit == 0 {
		return 0
	}
	usage := float64(g.readHeap()) / float64(g.limit)
	metrics.MemoryUsageRatio.Set(usage)
	return usage
}

// Wait returns immediately unless usage is critical. Then it collects
// garbage and polls until usage falls below the high watermark. It only
// returns an error when ctx ends.
func (g *Guard) Wait(ctx context.Context) error {
	usage := g.Usage()
	if g.limit == 0 || usage < g.config.CriticalWaterMark {
		return nil
	}

	logging.Warn("Memory critical (%.1f%% of limit), pausing processing", usage*100)
	metrics.MemoryPaused.Set(1)
	metrics.MemoryGCPauses.Inc()
	defer metrics.MemoryPaused.Set(0)

	deadline := time.Now().Add(g.config.MaxWait)
	for {
		g.collect()
		usage = g.Usage()
		if usage < g.config.HighWaterMark {
			logging.Info("Memory recovered (%.1f%% of limit), resuming processing", usage*100)
			return nil
		}
		if !time.Now().Before(deadline) {
			logging.Warn("Memory still at %.1f%% of limit after %s, continuing anyway", usage*100, g.config.MaxWait)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.config.PollInterval):
		}
	}
}
