package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"thumbnailer/internal/database"
	"thumbnailer/internal/startup"
)

func newHistoryCmd(stdout io.Writer) *cobra.Command {
	var (
		limit    int
		failures int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the history database",
		Long: `History lists recent runs recorded in HISTORY_DB. With --failures N it lists
source files that failed at least N times and never succeeded; they are
candidates for KNOWN_PROBLEM_FILES.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.HistoryDB == "" {
				return &startup.ConfigError{Key: "HISTORY_DB", Err: startup.ErrRequired}
			}

			db, err := database.New(cmd.Context(), cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer db.Close()

			tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			if failures > 0 {
				paths, err := db.FailedPaths(cmd.Context(), failures)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "FAILURES\tLAST SEEN\tSOURCE\tLAST ERROR")
				for _, p := range paths {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.Failures, humanize.Time(p.LastSeen), p.SourcePath, p.LastError)
				}
				return tw.Flush()
			}

			runs, err := db.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "STARTED\tDURATION\tOUTCOME\tCREATED\tFAILED\tSOURCE BYTES\tHOST\tID")
			for _, r := range runs {
				duration := "-"
				if !r.EndedAt.IsZero() {
					duration = r.EndedAt.Sub(r.StartedAt).Round(time.Second).String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), duration, r.Outcome,
					r.FilesProcessed, r.FilesFailed, humanize.IBytes(uint64(r.BytesProcessed)), r.Host, r.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")
	cmd.Flags().IntVar(&failures, "failures", 0, "list files that failed at least this many times")
	return cmd
}
