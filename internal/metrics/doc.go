// Package metrics provides Prometheus instrumentation for thumbnailer runs.
//
// A run is a short-lived batch job, so nothing is scraped from the process.
// All metrics live in a dedicated [Registry] and are exported when the run
// ends, either into a node_exporter textfile ([WriteTextfile]) or to a
// Pushgateway ([Push]). Metric names carry the "thumbnailer_" prefix.
//
// # Metric Categories
//
// ## Run Metrics
//   - RunsTotal: Counter of runs by outcome
//   - RunDuration: Gauge of the last run's duration
//   - LastRunTimestamp / LastSuccessTimestamp: Gauges of completion times
//   - LockAgeSeconds: Gauge of the lock file age seen on contention
//
// ## Selection and Thumbnail Metrics
//   - FilesScanned: Gauge of files found by the last scan
//   - CandidatesSelected: Gauge of candidates per profile
//   - FilesExcluded: Gauge of exclusions per profile and reason
//   - ThumbnailsTotal: Counter by profile and status
//   - ThumbnailPhaseDuration: Histogram of probe and resize time
//   - SourceBytesProcessed: Counter of source bytes thumbnailed
//
// ## Filesystem Metrics
//
// NFS stale-handle retries are recorded through [NewFilesystemObserver],
// which plugs into the filesystem package.
//
// ## Memory Metrics
//   - GoMemLimit, MemoryUsageRatio, MemoryPaused, MemoryGCPauses
//
// # Prometheus Queries
//
// Runs that ended early because of a stale lock:
//
//	increase(thumbnailer_runs_total{outcome="stale_lock"}[1d])
//
// Failure ratio of the last run:
//
//	thumbnailer_thumbnails_total{status="error"} /
//	sum(thumbnailer_thumbnails_total)
package metrics
