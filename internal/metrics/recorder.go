package metrics

import (
	"time"

	"thumbnailer/internal/logging"
)

// RunRecorder translates run events into metric updates.
type RunRecorder struct{}

// NewRunRecorder creates a RunRecorder.
func NewRunRecorder() *RunRecorder {
	return &RunRecorder{}
}

// Scanned records the number of files the scan returned.
func (r *RunRecorder) Scanned(files int) {
	FilesScanned.Set(float64(files))
}

// Selected records the candidate filter result for one profile.
func (r *RunRecorder) Selected(profile string, candidates int, excluded map[string]int) {
	CandidatesSelected.WithLabelValues(profile).Set(float64(candidates))
	for reason, n := range excluded {
		FilesExcluded.WithLabelValues(profile, reason).Set(float64(n))
	}
}

// FileDone records one thumbnail attempt.
func (r *RunRecorder) FileDone(profile, status string, size int64, probe, resize time.Duration) {
	ThumbnailsTotal.WithLabelValues(profile, status).Inc()
	if probe > 0 {
		ThumbnailPhaseDuration.WithLabelValues("probe").Observe(probe.Seconds())
	}
	if resize > 0 {
		ThumbnailPhaseDuration.WithLabelValues("resize").Observe(resize.Seconds())
	}
	if status == StatusSuccess {
		SourceBytesProcessed.Add(float64(size))
	}
}

// LockContended records the age of a lock held by another run.
func (r *RunRecorder) LockContended(age time.Duration) {
	LockAgeSeconds.Set(age.Seconds())
}

// Finished records the run outcome and timing.
func (r *RunRecorder) Finished(outcome string, started, ended time.Time) {
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.Set(ended.Sub(started).Seconds())
	LastRunTimestamp.Set(float64(ended.Unix()))
	if outcome == OutcomeCompleted || outcome == OutcomeQuotaExhausted {
		LastSuccessTimestamp.Set(float64(ended.Unix()))
	}
	logging.Debug("Metrics recorded: outcome=%s duration=%s", outcome, ended.Sub(started))
}
