package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/tether/internal/app"
	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ids"
	"github.com/aalvaropc/tether/internal/textutil"
)

func fetchCmd(opts *rootOpts) *cobra.Command {
	var (
		id     string
		format string
	)

	c := &cobra.Command{
		Use:   "fetch",
		Short: "Print one resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App) error {
				r, err := a.Resources.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if format == formatJSON {
					return printJSON(cmd.OutOrStdout(), r)
				}
				printResource(cmd.OutOrStdout(), r)
				return nil
			})
		},
	}

	c.Flags().StringVar(&id, "id", "", "Resource ID (required)")
	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	_ = c.MarkFlagRequired("id")
	return c
}

func listCmd(opts *rootOpts) *cobra.Command {
	var (
		limit  int
		filter string
		format string
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "List resources, optionally filtered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App) error {
				if filter != "" && !a.IsFeatureEnabled(domain.FeatureAdvancedSearch) {
					return domain.NewError("cli.list", domain.KindValidation, "filtering requires the advanced_search feature")
				}
				items, err := a.Resources.List(cmd.Context(), limit, filter)
				if err != nil {
					return err
				}
				if format == formatJSON {
					return printJSON(cmd.OutOrStdout(), items)
				}
				printResourceList(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}

	c.Flags().IntVar(&limit, "limit", 10, "Maximum number of resources")
	c.Flags().StringVar(&filter, "filter", "", "Only names containing this text")
	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	return c
}

func createCmd(opts *rootOpts) *cobra.Command {
	var (
		id          string
		name        string
		typ         string
		data        string
		description string
		owner       string
		format      string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			rt, err := domain.ParseResourceType(typ)
			if err != nil {
				return err
			}
			if rt == domain.ResourceAny {
				return domain.NewError("cli.create", domain.KindValidation, `"any" is not a concrete resource type`)
			}

			rd := domain.NewResourceData(name, rt)
			for k, v := range textutil.ParseKeyValuePairs(data) {
				rd = rd.WithData(k, v)
			}
			if strings.TrimSpace(description) != "" {
				rd = rd.WithDescription(description)
			}
			if id == "" {
				id = ids.ForType(rt.String())
			}
			r := domain.NewResource(id, rd)
			if owner != "" {
				r = r.WithOwner(owner)
			}

			return withApp(cmd, opts, func(a *app.App) error {
				out, err := a.Resources.Create(cmd.Context(), r)
				if err != nil {
					return err
				}
				if format == formatJSON {
					return printJSON(cmd.OutOrStdout(), out)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", out.ID)
				return nil
			})
		},
	}

	c.Flags().StringVar(&id, "id", "", "Resource ID (generated when omitted)")
	c.Flags().StringVar(&name, "name", "", "Resource name (required)")
	c.Flags().StringVar(&typ, "type", "", "Resource type: document|user|project|settings|media (required)")
	c.Flags().StringVar(&data, "data", "", "Data fields as k=v,k2=v2")
	c.Flags().StringVar(&description, "description", "", "Optional description")
	c.Flags().StringVar(&owner, "owner", "", "Owner user ID")
	c.Flags().StringVar(&format, "format", formatPretty, "Output format: pretty|json")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("type")
	return c
}

func deleteCmd(opts *rootOpts) *cobra.Command {
	var id string

	c := &cobra.Command{
		Use:   "delete",
		Short: "Delete a resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				deleted, err := a.Resources.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !deleted {
					return &domain.OpError{Op: "cli.delete", Kind: domain.KindNotFound, Path: id, Err: domain.ErrNotFound}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				return nil
			})
		},
	}

	c.Flags().StringVar(&id, "id", "", "Resource ID (required)")
	_ = c.MarkFlagRequired("id")
	return c
}
