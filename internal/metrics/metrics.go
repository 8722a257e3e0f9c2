package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every thumbnailer metric. It is separate from the default
// registry so exports carry no Go runtime series that would clash with
// node_exporter's own.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Run metrics
var (
	RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbnailer_runs_total",
			Help: "Total number of runs by outcome",
		},
		[]string{"outcome"},
	)

	RunDuration = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbnailer_last_run_duration_seconds",
			Help: "Duration of the last run in seconds",
		},
	)

	LastRunTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbnailer_last_run_timestamp",
			Help: "Unix timestamp of the last run end",
		},
	)

	LastSuccessTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbnailer_last_success_timestamp",
			Help: "Unix timestamp of the last run that reached the processing loop",
		},
	)

	LockAgeSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbnailer_lock_age_seconds",
			Help: "Age of the lock file found by the last contended run",
		},
	)
)

// Selection and thumbnail metrics
var (
	FilesScanned = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbnailer_files_scanned",
			Help: "Number of files found by the last scan",
		},
	)

	CandidatesSelected = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "thumbnailer_candidates_selected",
			Help: "Number of files selected for thumbnailing by profile",
		},
		[]string{"profile"},
	)

	FilesExcluded = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "thumbnailer_files_excluded",
			Help: "Number of files excluded by profile and reason",
		},
		[]string{"profile", "reason"},
	)

	ThumbnailsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbnailer_thumbnails_total",
			Help: "Total number of thumbnail attempts by profile and status",
		},
		[]string{"profile", "status"},
	)

	ThumbnailPhaseDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbnailer_thumbnail_phase_duration_seconds",
			Help:    "Time spent per thumbnail phase",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"phase"},
	)

	SourceBytesProcessed = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbnailer_source_bytes_processed_total",
			Help: "Total source bytes of successfully thumbnailed files",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbnailer_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations by volume",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbnailer_filesystem_operation_errors_total",
			Help: "Total filesystem operation errors by volume",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbnailer_filesystem_retry_attempts_total",
			Help: "Total retries after NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbnailer_filesystem_retry_success_total",
			Help: "Total operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbnailer_filesystem_retry_failures_total",
			Help: "Total operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbnailer_filesystem_stale_errors_total",
			Help: "Total ESTALE errors seen",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	GoMemLimit = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbnailer_go_memlimit_bytes",
			Help: "Configured GOMEMLIMIT in bytes",
		},
	)

	MemoryUsageRatio = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbnailer_memory_usage_ratio",
			Help: "Heap in use as a ratio of GOMEMLIMIT",
		},
	)

	MemoryPaused = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbnailer_memory_paused",
			Help: "1 while processing waits for memory pressure to drop",
		},
	)

	MemoryGCPauses = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbnailer_memory_gc_pauses_total",
			Help: "Total pauses forced by memory pressure",
		},
	)
)

// AppInfo exposes build information.
var AppInfo = factory.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "thumbnailer_app_info",
		Help: "Application build information",
	},
	[]string{"version", "go_version"},
)
