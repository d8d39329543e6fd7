package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/tether/internal/app"
	"github.com/aalvaropc/tether/internal/usecase"
)

func usersCmd(opts *rootOpts) *cobra.Command {
	c := &cobra.Command{
		Use:   "users",
		Short: "Manage users in the local repository",
	}

	c.AddCommand(usersAddCmd(opts), usersListCmd(opts), usersShowCmd(opts))
	return c
}

func usersAddCmd(opts *rootOpts) *cobra.Command {
	var in usecase.NewUserInput

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				u, err := a.Users.Add(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", u.Email, u.ID)
				return nil
			})
		},
	}

	c.Flags().StringVar(&in.Email, "email", "", "Email address (required)")
	c.Flags().StringVar(&in.Name, "name", "", "Display name (required)")
	c.Flags().StringVar(&in.Role, "role", "user", "Role: admin|manager|user|readonly|guest")
	c.Flags().StringSliceVar(&in.Permissions, "perm", nil, "Extra permission (repeatable; custom:<name> allowed)")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("name")
	return c
}

func usersListCmd(opts *rootOpts) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App) error {
				users, err := a.Users.List(cmd.Context())
				if err != nil {
					return err
				}
				rows, err := toUserRows(users)
				if err != nil {
					return err
				}
				if format == formatJSON {
					return printJSON(cmd.OutOrStdout(), rows)
				}
				printUserList(cmd.OutOrStdout(), rows)
				return nil
			})
		},
	}

	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	return c
}

func usersShowCmd(opts *rootOpts) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "show ID|EMAIL",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App) error {
				u, err := a.Users.Show(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				row, err := toUserRow(u)
				if err != nil {
					return err
				}
				if format == formatJSON {
					return printJSON(cmd.OutOrStdout(), row)
				}
				printUser(cmd.OutOrStdout(), row)
				return nil
			})
		},
	}

	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	return c
}
