package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"thumbnailer/internal/logging"
	"thumbnailer/internal/startup"
)

type globalOptions struct {
	envFile  string
	logLevel string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "thumbnailer",
		Short: "Create thumbnails for an image store",
		Long: `Thumbnailer scans the configured watch directories of an image store and
writes a resized copy of every image that does not have one yet, within
per-run file and byte quotas.`,
		Version:       startup.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.apply()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &startup.ConfigError{Key: "flags", Err: err}
	})

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	run := newRunCmd(stdout)
	root.AddCommand(run, newPlanCmd(stdout), newLockCmd(stdout), newHistoryCmd(stdout))

	// A bare invocation from cron performs a run.
	root.RunE = run.RunE

	return root
}

func (o *globalOptions) apply() error {
	if o.logLevel != "" {
		level, ok := logging.ParseLevel(o.logLevel)
		if !ok {
			return &startup.ConfigError{Key: "--log-level", Err: fmt.Errorf("unknown level %q", o.logLevel)}
		}
		logging.SetLevel(level)
	}

	if o.envFile != "" {
		// Variables already in the environment win over the file.
		if err := godotenv.Load(o.envFile); err != nil {
			return &startup.ConfigError{Key: "--env-file", Err: err}
		}
		logging.Debug("Loaded settings from %s", o.envFile)
	}
	return nil
}

// loadConfig reads the process environment.
func loadConfig() (*startup.Config, error) {
	return startup.LoadConfig(os.Getenv)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
