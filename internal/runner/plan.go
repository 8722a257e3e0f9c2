package runner

import (
	"context"

	"thumbnailer/internal/logging"
)

// PlannedFile is a thumbnail a run would create.
type PlannedFile struct {
	Profile     string
	Source      string
	Destination string
	Size        int64
}

// Plan scans and filters like Run but takes no lock and writes nothing.
// Quotas are not applied, so the result lists all pending work.
func (c *Controller) Plan(ctx context.Context) ([]PlannedFile, error) {
	watches, dropped := c.scanner.CheckWatches(c.cfg.Watches)
	for _, d := range dropped {
		logging.Warn("Watch directory %s is not readable: %v", d.Watch.Root, d.Err)
	}
	if len(watches) == 0 {
		return nil, ErrNoWatches
	}

	files, err := c.scanner.Scan(ctx, watches)
	if err != nil {
		return nil, err
	}
	logging.Info("%d files found", len(files))

	var planned []PlannedFile
	for _, profile := range c.cfg.Profiles {
		sel := c.filter.Select(files, profile)
		logging.Info("Profile %s: %d files ready, %d excluded", profile.Name, len(sel.Candidates), sel.Total())
		for reason, n := range sel.Excluded {
			logging.Debug("  %s: %d", reason, n)
		}
		for _, cand := range sel.Candidates {
			planned = append(planned, PlannedFile{
				Profile:     profile.Name,
				Source:      cand.SourcePath,
				Destination: cand.Destination,
				Size:        cand.Size,
			})
		}
	}
	return planned, nil
}
