package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/example/vicroadsq/internal/logging"
	"github.com/example/vicroadsq/internal/portal"
	"github.com/spf13/cobra"
)

func newOfficesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offices",
		Short: "Discover and list testing offices",
	}
	cmd.AddCommand(newOfficesDiscoverCmd(opts))
	cmd.AddCommand(newOfficesListCmd(opts))
	return cmd
}

func newOfficesDiscoverCmd(opts *rootOptions) *cobra.Command {
	var (
		loc  portal.Location
		save bool
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Look up the offices near a postcode and optionally save them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.portalClient()
			if err != nil {
				return err
			}
			sess, err := a.authenticator(client).Authenticate(ctx)
			if err != nil {
				return err
			}

			d := &portal.Discoverer{Transport: client, Log: logging.Component(a.log, "discover")}
			found, err := d.Discover(ctx, sess, loc)
			if err != nil {
				return err
			}
			a.log.Info().Bool("success", true).Msgf("found %d offices", len(found))

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSHORT NAME\tNAME\tSUBURB")
			for _, o := range found {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", o.ID, o.ShortName, o.Name, o.Suburb)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if !save {
				return nil
			}
			if err := a.offices.Save(ctx, found); err != nil {
				return err
			}
			a.log.Info().Msg("offices saved, add the short names you want to offices_to_query")
			return nil
		},
	}

	cmd.Flags().IntVar(&loc.Postcode, "postcode", 0, "postcode to search around")
	cmd.Flags().Float64Var(&loc.Latitude, "lat", 0, "latitude of the postcode")
	cmd.Flags().Float64Var(&loc.Longitude, "lng", 0, "longitude of the postcode")
	cmd.Flags().BoolVar(&save, "save", false, "save the result to the office store")
	_ = cmd.MarkFlagRequired("postcode")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newOfficesListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the offices in the office store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			all, err := a.offices.Load(ctx)
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Println("no offices stored, run: vicroadsq offices discover --postcode N --lat X --lng Y --save")
				return nil
			}
			want := map[string]bool{}
			for _, n := range a.cfg.OfficesToQuery {
				want[strings.ToLower(strings.TrimSpace(n))] = true
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSHORT NAME\tNAME\tQUERIED")
			for _, o := range all {
				queried := ""
				if want[o.Key()] {
					queried = "yes"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", o.ID, o.ShortName, o.Name, queried)
			}
			return tw.Flush()
		},
	}
}
