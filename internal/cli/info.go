package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/tether/internal/app"
	"github.com/aalvaropc/tether/internal/buildinfo"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// The version needs no workspace or logger.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

func featuresCmd(opts *rootOpts) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "features",
		Short: "Show feature flags and application state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App) error {
				names := a.Config.Features.Names()
				if format == formatJSON {
					flags := make(map[string]bool, len(names))
					for _, n := range names {
						flags[n] = a.IsFeatureEnabled(n)
					}
					return printJSON(cmd.OutOrStdout(), map[string]any{
						"state":    a.AppState().String(),
						"features": flags,
					})
				}

				fmt.Fprintf(cmd.OutOrStdout(), "State: %s\n", a.AppState())
				for _, n := range names {
					mark := "off"
					if a.IsFeatureEnabled(n) {
						mark = "on"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %s\n", n, mark)
				}
				return nil
			})
		},
	}

	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	return c
}
