package main

import (
	"context"
	"io"
	"os"
	"runtime"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"thumbnailer/internal/database"
	"thumbnailer/internal/filesystem"
	"thumbnailer/internal/logging"
	"thumbnailer/internal/media"
	"thumbnailer/internal/memory"
	"thumbnailer/internal/metrics"
	"thumbnailer/internal/notify"
	"thumbnailer/internal/runner"
	"thumbnailer/internal/startup"
)

func newRunCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Perform one thumbnailing run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), stdout)
		},
	}
}

func runOnce(ctx context.Context, stdout io.Writer) error {
	if isTerminal(stdout) {
		startup.PrintBanner(stdout)
	}
	startup.LogSystemInfo()

	memResult := memory.ConfigureFromEnv(os.Getenv)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Log()

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		filesystem.VolumeStore:      cfg.ImageStoreRoot,
		filesystem.VolumeThumbnails: cfg.ThumbnailsDir,
	}))
	metrics.InitializeMetrics(cfg.ProfileNames())
	metrics.AppInfo.WithLabelValues(startup.Version, runtime.Version()).Set(1)

	fs := afero.NewOsFs()
	resizer, err := media.NewResizer(cfg.ResizeBackend, fs, cfg.JPEGQuality)
	if err != nil {
		return err
	}
	if cfg.ResizeBackend == media.BackendVips {
		defer media.ShutdownVips()
	}

	var history runner.History
	if cfg.HistoryDB != "" {
		db, err := database.New(ctx, cfg.HistoryDB)
		if err != nil {
			// History is a journal; the run itself does not depend on it.
			logging.Warn("History database unavailable, continuing without it: %v", err)
		} else {
			defer func() {
				if err := db.Close(); err != nil {
					logging.Warn("Failed to close history database: %v", err)
				}
			}()
			history = db
		}
	}

	guardConfig := memory.DefaultConfig()
	guardConfig.LimitBytes = memResult.ContainerLimit

	ctrl := runner.New(cfg, runner.Deps{
		FS:      fs,
		Resizer: resizer,
		Notifier: notify.New(notify.Options{
			SMTPAddr:     cfg.SMTPAddr,
			SMTPUsername: cfg.SMTPUsername,
			SMTPPassword: cfg.SMTPPassword,
			SendmailPath: cfg.SendmailPath,
		}),
		Recorder: metrics.NewRunRecorder(),
		History:  history,
		Guard:    memory.NewGuard(guardConfig),
		Echo:     stdout,
		RunID:    uuid.NewString(),
	})

	report, runErr := ctrl.Run(ctx)
	logging.Info("Run %s ended: %s", report.RunID, report.Outcome)

	metrics.Export(context.WithoutCancel(ctx), cfg.MetricsTextfile, cfg.MetricsPushgateway)
	return runErr
}
