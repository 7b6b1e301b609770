package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently seen viable slots (needs database_url)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.sightings == nil {
				return fmt.Errorf("sighting history is only kept when database_url is set")
			}
			list, err := a.sightings.ListRecent(ctx, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEEN\tOFFICE\tDATE\tTIME")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.SeenAt.Local().Format("2006-01-02 15:04"), s.OfficeName, s.DisplayDate, s.DisplayTime)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 25, "number of sightings to show")
	return cmd
}
