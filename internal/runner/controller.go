package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"thumbnailer/internal/candidates"
	"thumbnailer/internal/database"
	"thumbnailer/internal/filesystem"
	"thumbnailer/internal/lock"
	"thumbnailer/internal/logging"
	"thumbnailer/internal/media"
	"thumbnailer/internal/memory"
	"thumbnailer/internal/metrics"
	"thumbnailer/internal/notify"
	"thumbnailer/internal/quota"
	"thumbnailer/internal/scanner"
	"thumbnailer/internal/startup"
)

// Recorder receives run events for metrics. metrics.RunRecorder
// implements it.
type Recorder interface {
	Scanned(files int)
	Selected(profile string, candidates int, excluded map[string]int)
	FileDone(profile, status string, size int64, probe, resize time.Duration)
	LockContended(age time.Duration)
	Finished(outcome string, started, ended time.Time)
}

// History journals runs and per-file outcomes. database.Database
// implements it.
type History interface {
	BeginRun(ctx context.Context, id, host string, startedAt time.Time) error
	RecordFile(ctx context.Context, o database.FileOutcome) error
	FinishRun(ctx context.Context, id string, endedAt time.Time, outcome string, processed, bytes, failed int64) error
}

// Deps are the collaborators of a Controller. Only Resizer and Notifier
// are required.
type Deps struct {
	FS       afero.Fs
	Resizer  media.Resizer
	Notifier notify.Notifier
	Recorder Recorder
	History  History
	Guard    *memory.Guard
	// Echo receives run log lines when ECHO_OUTPUT is set; stdout in
	// production.
	Echo  io.Writer
	Now   func() time.Time
	RunID string
	Host  string
}

// Report summarises a finished run.
type Report struct {
	RunID          string
	Outcome        string
	Final          State
	Found          int
	Selected       int
	Created        int
	Failed         int
	Skipped        int
	BytesProcessed int64
	LockAge        time.Duration
}

// Controller runs the thumbnailing state machine for one configuration.
type Controller struct {
	cfg      *startup.Config
	fs       afero.Fs
	scanner  *scanner.Scanner
	filter   *candidates.Filter
	prober   *media.Prober
	resizer  media.Resizer
	alerter  *notify.Alerter
	runlog   *logging.RunLog
	recorder Recorder
	history  History
	guard    *memory.Guard
	retry    filesystem.RetryConfig
	now      func() time.Time
	runID    string
	host     string

	mu    sync.Mutex
	state State
}

// New creates a Controller.
func New(cfg *startup.Config, deps Deps) *Controller {
	fs := deps.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	runID := deps.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	host := deps.Host
	if host == "" {
		host, _ = os.Hostname()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	var echo io.Writer
	if cfg.EchoOutput {
		echo = deps.Echo
	}

	return &Controller{
		cfg:     cfg,
		fs:      fs,
		scanner: scanner.New(fs, cfg.ImageStoreRoot, cfg.FileTypes, cfg.FilePattern),
		filter: candidates.New(fs, candidates.Options{
			StoreRoot:         cfg.ImageStoreRoot,
			ThumbnailsDir:     cfg.ThumbnailsDir,
			Extensions:        cfg.FileTypes,
			Keep:              cfg.FilePattern,
			OutputFormat:      cfg.OutputFormat,
			RawSuffix:         cfg.RawSuffix,
			MasterSuffix:      cfg.MasterSuffix,
			RawAllowedFolders: cfg.RawAllowedFolders,
			KnownProblemFiles: cfg.KnownProblemFiles,
			OverwriteOlder:    cfg.OverwriteOlder,
		}),
		prober:   media.NewProber(fs),
		resizer:  deps.Resizer,
		alerter:  notify.NewAlerter(deps.Notifier, cfg.AdminEmail, cfg.SMTPFrom),
		runlog:   logging.NewRunLog(fs, cfg.LogFile, echo),
		recorder: recorder,
		history:  deps.History,
		guard:    deps.Guard,
		retry:    filesystem.DefaultRetryConfig(),
		now:      now,
		runID:    runID,
		host:     host,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	logging.Debug("Run %s: %s -> %s", c.runID, prev, s)
}

// Run performs one complete run. A nil error covers normal completion,
// quota exhaustion and lock contention; see Report.Outcome for which.
func (c *Controller) Run(ctx context.Context) (report *Report, err error) {
	started := c.now()
	report = &Report{RunID: c.runID}
	defer func() {
		report.Outcome = outcomeFor(report.Outcome, err)
		c.setState(StateTerminated)
		report.Final = StateTerminated
		c.recorder.Finished(report.Outcome, started, c.now())
	}()

	c.setState(StateAcquiringLock)
	token, err := c.acquireLock(ctx, report)
	if err != nil || token == nil {
		return report, err
	}
	c.setState(StateLockHeld)

	// From here on the lock is held and shutdown must run on every path.
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Run %s panicked: %v", c.runID, r)
			err = fmt.Errorf("run panicked: %v", r)
		}
		c.shutdown(ctx, token, report, err)
	}()

	c.beginHistory(ctx, started)
	c.runlog.Logf("Thumbnailer initiated with maxFiles = %s and maxBytes = %s",
		limitText(c.cfg.MaxFilesPerRun, fmt.Sprint(c.cfg.MaxFilesPerRun)),
		limitText(c.cfg.MaxBytesPerRun, humanize.IBytes(uint64(c.cfg.MaxBytesPerRun))))

	if err := checkDirectory(c.fs, c.cfg.ThumbnailsDir); err != nil {
		logging.Error("Thumbnails directory %s is not accessible: %v", c.cfg.ThumbnailsDir, err)
		c.runlog.Logf("The thumbnailer could not access the directory %s", c.cfg.ThumbnailsDir)
		_ = c.alerter.Inaccessible(ctx, c.cfg.ThumbnailsDir, err)
		report.Outcome = metrics.OutcomeInaccessible
		return report, fmt.Errorf("%w: %s: %v", ErrThumbnailsInaccessible, c.cfg.ThumbnailsDir, err)
	}

	c.setState(StateScanning)
	watches, dropped := c.scanner.CheckWatches(c.cfg.Watches)
	for _, d := range dropped {
		logging.Warn("Watch directory %s does not exist or could not be read and is being ignored: %v", d.Watch.Root, d.Err)
		c.runlog.Logf("The directory %s in the watch list does not exist or could not be read and so is being ignored", d.Watch.Root)
	}
	if len(watches) == 0 {
		report.Outcome = metrics.OutcomeNoWatches
		return report, ErrNoWatches
	}

	files, err := c.scanner.Scan(ctx, watches)
	if err != nil {
		return report, fmt.Errorf("scan failed: %w", err)
	}
	report.Found = len(files)
	c.recorder.Scanned(len(files))
	c.runlog.Logf("%d files found; now starting checking ...", len(files))

	tracker := quota.New(c.cfg.MaxFilesPerRun, c.cfg.MaxBytesPerRun)
	for _, profile := range c.cfg.Profiles {
		c.setState(StateFiltering)
		sel := c.filter.Select(files, profile)
		report.Selected += len(sel.Candidates)
		c.recorder.Selected(profile.Name, len(sel.Candidates), reasonCounts(sel.Excluded))
		for _, path := range sel.Unreadable {
			c.runlog.Logf("Cannot read file %s", path)
		}
		c.runlog.Logf("%d files ready; now starting resizing ...", len(sel.Candidates))

		c.setState(StateProcessing)
		for _, cand := range sel.Candidates {
			if err := ctx.Err(); err != nil {
				report.Outcome = metrics.OutcomeCancelled
				return report, err
			}
			if !tracker.TryConsume(cand.Size) {
				logging.Info("Quota reached (%s), stopping", tracker)
				report.Outcome = metrics.OutcomeQuotaExhausted
				c.collect(report, tracker)
				return report, nil
			}
			if err := c.process(ctx, profile, cand, tracker, report); err != nil {
				report.Outcome = metrics.OutcomeCancelled
				c.collect(report, tracker)
				return report, err
			}
		}
	}

	c.collect(report, tracker)
	report.Outcome = metrics.OutcomeCompleted
	return report, nil
}

// acquireLock returns a nil token and nil error when another run holds
// the lock.
func (c *Controller) acquireLock(ctx context.Context, report *Report) (*lock.Token, error) {
	path := c.cfg.LockFile
	if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logging.Error("Cannot create lock directory %s: %v", filepath.Dir(path), err)
		_ = c.alerter.Inaccessible(ctx, filepath.Dir(path), err)
		report.Outcome = metrics.OutcomeInaccessible
		return nil, fmt.Errorf("%w: %v", ErrThumbnailsInaccessible, err)
	}

	token, err := lock.Acquire(c.fs, path, c.now())
	if err == nil {
		logging.Debug("Acquired lock %s", path)
		return token, nil
	}

	var contended *lock.ContendedError
	if !errors.As(err, &contended) {
		report.Outcome = metrics.OutcomeFailed
		return nil, fmt.Errorf("%w: %v", ErrLockUnusable, err)
	}

	c.setState(StateLockContended)
	report.LockAge = contended.Age
	c.recorder.LockContended(contended.Age)

	if contended.IsStale(c.cfg.StaleLockAfter) {
		logging.Warn("Lock %s is %s old, notifying %s", path, contended.Age.Round(time.Second), c.cfg.AdminEmail)
		_ = c.alerter.StaleLock(ctx, path)
		report.Outcome = metrics.OutcomeStaleLock
		return nil, nil
	}

	logging.Info("Another run holds %s (age %s), exiting", path, contended.Age.Round(time.Second))
	report.Outcome = metrics.OutcomeLockContended
	return nil, nil
}

func (c *Controller) shutdown(ctx context.Context, token *lock.Token, report *Report, runErr error) {
	c.setState(StateShuttingDown)
	c.runlog.Logf("Ended this run")

	if err := token.Release(); err != nil {
		logging.Error("Failed to remove lock %s: %v", token.Path(), err)
	}

	if c.history != nil {
		outcome := outcomeFor(report.Outcome, runErr)
		hctx := context.WithoutCancel(ctx)
		if err := c.history.FinishRun(hctx, c.runID, c.now(), outcome,
			int64(report.Created), report.BytesProcessed, int64(report.Failed)); err != nil {
			logging.Warn("Failed to record run %s in history: %v", c.runID, err)
		}
	}

	logging.Info("Run %s finished: %d found, %d selected, %d created, %d failed, %d skipped, %s processed",
		c.runID, report.Found, report.Selected, report.Created, report.Failed, report.Skipped,
		humanize.IBytes(uint64(report.BytesProcessed)))
}

func (c *Controller) beginHistory(ctx context.Context, started time.Time) {
	if c.history == nil {
		return
	}
	if err := c.history.BeginRun(ctx, c.runID, c.host, started); err != nil {
		logging.Warn("Failed to start history for run %s: %v", c.runID, err)
	}
}

func (c *Controller) collect(report *Report, tracker *quota.Tracker) {
	_, report.BytesProcessed = tracker.Processed()
}

func outcomeFor(outcome string, err error) string {
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		return metrics.OutcomeCancelled
	case outcome != "":
		return outcome
	case err != nil:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomeCompleted
	}
}

func limitText(n int64, formatted string) string {
	if n == 0 {
		return "unlimited"
	}
	return formatted
}

func reasonCounts(excluded map[candidates.Reason]int) map[string]int {
	out := make(map[string]int, len(excluded))
	for reason, n := range excluded {
		out[string(reason)] = n
	}
	return out
}

// checkDirectory confirms dir can be listed and written.
func checkDirectory(fs afero.Fs, dir string) error {
	info, err := fs.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create: %w", err)
		}
		logging.Info("Created thumbnails directory %s", dir)
		info, err = fs.Stat(dir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	if _, err := afero.ReadDir(fs, dir); err != nil {
		return fmt.Errorf("cannot read: %w", err)
	}

	probe, err := afero.TempFile(fs, dir, ".thumbnailer-probe-*")
	if err != nil {
		return fmt.Errorf("cannot write: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	if err := fs.Remove(name); err != nil {
		logging.Warn("failed to remove probe file %s: %v", name, err)
	}
	return nil
}

type nopRecorder struct{}

func (nopRecorder) Scanned(int) {}
func (nopRecorder) Selected(string, int, map[string]int) {}
func (nopRecorder) FileDone(string, string, int64, time.Duration, time.Duration) {}
func (nopRecorder) LockContended(time.Duration) {}
func (nopRecorder) Finished(string, time.Time, time.Time) {}
