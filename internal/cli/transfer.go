package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/tether/internal/app"
	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/infra/snapshot"
)

func exportCmd(opts *rootOpts) *cobra.Command {
	var (
		out      string
		label    string
		as       string
		unmasked bool
	)

	c := &cobra.Command{
		Use:   "export",
		Short: "Write the local repository to a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				tr, snaps := a.Transfer(out, snapshot.WithMasking(!unmasked))
				id, err := tr.Export(cmd.Context(), label, as)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", snaps.Path(id))
				if !unmasked {
					fmt.Fprintln(cmd.ErrOrStderr(), "note: sensitive values are masked; import keeps local values for them (use --unmasked for a full backup)")
				}
				return nil
			})
		},
	}

	c.Flags().StringVar(&out, "out", "", "Output directory (default <workspace>/exports)")
	c.Flags().StringVar(&label, "label", "export", "Label used in the file name")
	c.Flags().StringVar(&as, "as", "", "Act as this user ID or email (needs export_data)")
	c.Flags().BoolVar(&unmasked, "unmasked", false, "Write sensitive values in clear text")
	return c
}

func importCmd(opts *rootOpts) *cobra.Command {
	var as string

	c := &cobra.Command{
		Use:   "import FILE",
		Short: "Load a JSON snapshot into the local repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				if a.Config.Store.Driver == domain.StoreMemory {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: the memory store is not persisted; imported data is lost on exit")
				}
				tr, _ := a.Transfer("")
				res, err := tr.Import(cmd.Context(), args[0], as)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d resource(s) and %d user(s)\n", res.Resources, res.Users)
				if res.Masked > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d masked value(s) were not imported; local values were kept where present\n", res.Masked)
				}
				return nil
			})
		},
	}

	c.Flags().StringVar(&as, "as", "", "Act as this user ID or email (needs import_data)")
	return c
}
