package runner

import (
	"context"
	"time"

	"thumbnailer/internal/candidates"
	"thumbnailer/internal/database"
	"thumbnailer/internal/filesystem"
	"thumbnailer/internal/logging"
	"thumbnailer/internal/media"
	"thumbnailer/internal/mediatypes"
	"thumbnailer/internal/metrics"
	"thumbnailer/internal/quota"
)

// process creates one thumbnail. Per-file failures are logged and
// counted; only cancellation of ctx is returned.
func (c *Controller) process(ctx context.Context, profile mediatypes.Profile, cand candidates.Candidate, tracker *quota.Tracker, report *Report) error {
	// The file may have moved since the scan, or another writer may have
	// produced the thumbnail meanwhile.
	if ok, err := filesystem.Exists(c.fs, cand.SourcePath, c.retry); err != nil || !ok {
		logging.Debug("Source %s vanished since the scan, skipping", cand.SourcePath)
		c.skip(ctx, profile, cand, "source vanished")
		report.Skipped++
		return nil
	}
	if !c.cfg.OverwriteOlder {
		if ok, _ := filesystem.Exists(c.fs, cand.Destination, c.retry); ok {
			logging.Debug("Thumbnail %s appeared since filtering, skipping", cand.Destination)
			c.skip(ctx, profile, cand, "thumbnail exists")
			report.Skipped++
			return nil
		}
	}

	if c.guard != nil {
		if err := c.guard.Wait(ctx); err != nil {
			return err
		}
	}

	probeStart := c.now()
	dims, err := c.prober.Dimensions(cand.SourcePath)
	probeTime := c.now().Sub(probeStart)
	if err != nil {
		c.runlog.Logf("Problem reading file %s: %v", cand.SourcePath, err)
		c.fail(ctx, profile, cand, err, probeTime, 0)
		report.Failed++
		return nil
	}

	width, height := media.ResizeTarget(dims, profile)
	req := media.Request{
		Source: cand.SourcePath,
		Dest:   cand.Destination,
		Format: c.cfg.OutputFormat,
		Width:  width,
		Height: height,
	}

	resizeStart := c.now()
	err = c.resizer.Resize(ctx, req)
	resizeTime := c.now().Sub(resizeStart)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.runlog.Logf("Failed to resize %s: %v", cand.SourcePath, err)
		c.fail(ctx, profile, cand, err, probeTime, resizeTime)
		report.Failed++
		return nil
	}

	c.runlog.Logf("Successfully created resized file %s", cand.Destination)
	tracker.RecordSuccess(cand.Size)
	report.Created++
	logging.Debug("Resized %s (%dx%d) to %s with %s in %s",
		cand.SourcePath, dims.Width, dims.Height, cand.Destination, c.resizer.Name(), resizeTime)

	c.recorder.FileDone(profile.Name, metrics.StatusSuccess, cand.Size, probeTime, resizeTime)
	c.recordFile(ctx, profile, cand, metrics.StatusSuccess, "", probeTime+resizeTime)
	return nil
}

func (c *Controller) skip(ctx context.Context, profile mediatypes.Profile, cand candidates.Candidate, why string) {
	c.recorder.FileDone(profile.Name, metrics.StatusSkipped, cand.Size, 0, 0)
	c.recordFile(ctx, profile, cand, metrics.StatusSkipped, why, 0)
}

func (c *Controller) fail(ctx context.Context, profile mediatypes.Profile, cand candidates.Candidate, err error, probe, resize time.Duration) {
	logging.Warn("Thumbnail for %s failed: %v", cand.SourcePath, err)
	c.recorder.FileDone(profile.Name, metrics.StatusError, cand.Size, probe, resize)
	c.recordFile(ctx, profile, cand, metrics.StatusError, err.Error(), probe+resize)
}

func (c *Controller) recordFile(ctx context.Context, profile mediatypes.Profile, cand candidates.Candidate, status, detail string, took time.Duration) {
	if c.history == nil {
		return
	}
	err := c.history.RecordFile(ctx, database.FileOutcome{
		RunID:       c.runID,
		Profile:     profile.Name,
		SourcePath:  cand.SourcePath,
		Destination: cand.Destination,
		Size:        cand.Size,
		Status:      status,
		Error:       detail,
		Duration:    took,
	})
	if err != nil {
		logging.Warn("Failed to record %s in history: %v", cand.SourcePath, err)
	}
}
