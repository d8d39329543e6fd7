package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/tether/internal/app"
	"github.com/aalvaropc/tether/internal/infra/logger"
	"github.com/aalvaropc/tether/internal/mockapi"
	"github.com/aalvaropc/tether/internal/ui/tui"
)

func mockCmd(opts *rootOpts) *cobra.Command {
	var (
		addr      string
		key       string
		rateLimit int
	)

	c := &cobra.Command{
		Use:   "mock",
		Short: "Serve a local resources API backed by the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				srv := mockapi.New(a.Store.Resources,
					mockapi.WithAPIKey(key),
					mockapi.WithRateLimit(rateLimit, time.Minute),
					mockapi.WithLogger(logger.WithComponent("mockapi")),
				)
				cmd.Printf("Serving mock API on %s (ctrl+c to stop)\n", addr)
				return srv.Serve(ctx, addr)
			})
		},
	}

	c.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	c.Flags().StringVar(&key, "require-key", "", "Require this bearer token")
	c.Flags().IntVar(&rateLimit, "rate-limit", 100, "Requests per minute per client (0 disables)")
	return c
}

func browseCmd(opts *rootOpts) *cobra.Command {
	var (
		limit  int
		filter string
	)

	c := &cobra.Command{
		Use:   "browse",
		Short: "Browse resources in a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				return tui.Run(tui.Deps{
					Resources: a.Resources,
					Limit:     limit,
					Filter:    filter,
					Logger:    logger.WithComponent("tui"),
					Debug:     opts.debug,
				})
			})
		},
	}

	c.Flags().IntVar(&limit, "limit", 0, "Maximum number of resources (0 means all)")
	c.Flags().StringVar(&filter, "filter", "", "Only names containing this text")
	return c
}
