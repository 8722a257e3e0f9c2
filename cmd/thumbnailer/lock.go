package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"thumbnailer/internal/lock"
)

func newLockCmd(stdout io.Writer) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Show the lock file state",
		Long: `Lock reports whether the lock file exists, its age and whether it is stale.
With --remove it deletes the lock so the next scheduled run can start; only do
this after confirming no run is active.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			osFs := afero.NewOsFs()

			info, err := lock.Inspect(osFs, cfg.LockFile, time.Now())
			if err != nil {
				return err
			}
			if !info.Exists {
				fmt.Fprintf(stdout, "%s: not present\n", cfg.LockFile)
				return nil
			}

			state := "fresh"
			if info.IsStale(cfg.StaleLockAfter) {
				state = "stale"
			}
			fmt.Fprintf(stdout, "%s: present since %s (age %s, %s; stale after %s)\n",
				cfg.LockFile, info.ModTime.Format(time.RFC3339), info.Age.Round(time.Second), state, cfg.StaleLockAfter)

			if remove {
				if err := lock.Remove(osFs, cfg.LockFile); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "%s: removed\n", cfg.LockFile)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "delete the lock file")
	return cmd
}
