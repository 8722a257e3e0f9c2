package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"thumbnailer/internal/notify"
	"thumbnailer/internal/runner"
)

func newPlanCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "List the thumbnails a run would create",
		Long: `Plan scans and filters exactly like a run but takes no lock, applies no
quota and writes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctrl := runner.New(cfg, runner.Deps{
				FS:       afero.NewReadOnlyFs(afero.NewOsFs()),
				Notifier: notify.LogNotifier{},
			})
			planned, err := ctrl.Plan(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROFILE\tSOURCE\tDESTINATION\tSIZE")
			var total int64
			for _, p := range planned {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Profile, p.Source, p.Destination, humanize.IBytes(uint64(p.Size)))
				total += p.Size
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%d thumbnails pending, %s of source images\n", len(planned), humanize.IBytes(uint64(total)))
			return nil
		},
	}
}
