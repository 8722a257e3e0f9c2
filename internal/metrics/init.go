package metrics

import "thumbnailer/internal/filesystem"

// Run outcomes used as the RunsTotal label.
const (
	OutcomeCompleted      = "completed"
	OutcomeQuotaExhausted = "quota_exhausted"
	OutcomeLockContended  = "lock_contended"
	OutcomeStaleLock      = "stale_lock"
	OutcomeInaccessible   = "inaccessible"
	OutcomeNoWatches      = "no_watches"
	OutcomeCancelled      = "cancelled"
	OutcomeFailed         = "failed"
)

// Thumbnail statuses used as the ThumbnailsTotal label.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// InitializeMetrics pre-populates expected label combinations so every
// series is present in the first export.
func InitializeMetrics(profiles []string) {
	for _, outcome := range []string{
		OutcomeCompleted, OutcomeQuotaExhausted, OutcomeLockContended, OutcomeStaleLock,
		OutcomeInaccessible, OutcomeNoWatches, OutcomeCancelled, OutcomeFailed,
	} {
		RunsTotal.WithLabelValues(outcome)
	}

	for _, profile := range profiles {
		CandidatesSelected.WithLabelValues(profile)
		for _, status := range []string{StatusSuccess, StatusError, StatusSkipped} {
			ThumbnailsTotal.WithLabelValues(profile, status)
		}
	}

	for _, phase := range []string{"probe", "resize"} {
		ThumbnailPhaseDuration.WithLabelValues(phase)
	}

	volumes := []string{filesystem.VolumeStore, filesystem.VolumeThumbnails, filesystem.VolumeUnknown}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "open"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}
