package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/tether/internal/app"
	"github.com/aalvaropc/tether/internal/infra/logger"
	"github.com/aalvaropc/tether/internal/infra/workspacefinder"
	"github.com/aalvaropc/tether/internal/usecase"
)

// rootOpts holds the persistent flags shared by every command.
type rootOpts struct {
	workspace  string
	configPath string
	apiURL     string
	apiKey     string
	debug      bool

	root          string
	logOutput     io.Writer
	cleanupLogger func() error
}

func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &rootOpts{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if opts.cleanupLogger != nil {
		defer func() { _ = opts.cleanupLogger() }()
	}
	if err != nil {
		reportError(stderr, err, opts.debug)
		return 1
	}
	return 0
}

// reportError prints the user-facing message, plus the raw error with --debug.
func reportError(w io.Writer, err error, debug bool) {
	h := usecase.NewErrorHandler(logger.WithComponent("cli"))
	h.HandleError(err)

	fmt.Fprintf(w, "Error: %s\n", h.UserMessage(err))
	if debug {
		fmt.Fprintf(w, "  %v\n", err)
	}
}

func newRootCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tether",
		Short:         "tether: client for the resources API with a local repository",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveRoot(workspacefinder.NewFinder(), opts.workspace)
			if err != nil {
				return err
			}
			opts.root = root

			cleanup, err := logger.Setup(logger.Config{
				Root:   root,
				Debug:  opts.debug,
				Output: opts.logOutput,
			})
			if err != nil {
				// Logging is best effort; commands still run.
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: logging disabled: %v\n", err)
				return nil
			}
			opts.cleanupLogger = cleanup
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	pf.StringVar(&opts.configPath, "config", "", "Path to tether.yaml (default <workspace>/tether.yaml)")
	pf.StringVar(&opts.apiURL, "api-url", "", "API base URL (overrides config and TETHER_API_URL)")
	pf.StringVar(&opts.apiKey, "api-key", "", "API key (overrides config and TETHER_API_KEY)")
	pf.BoolVar(&opts.debug, "debug", false, "enable verbose logging to .tether/logs/tether.log")

	cmd.AddCommand(
		fetchCmd(opts),
		listCmd(opts),
		createCmd(opts),
		deleteCmd(opts),
		usersCmd(opts),
		exportCmd(opts),
		importCmd(opts),
		mockCmd(opts),
		browseCmd(opts),
		initCmd(opts),
		versionCmd(),
		featuresCmd(opts),
	)
	return cmd
}

// withApp opens the application for one command and closes it afterwards.
func withApp(cmd *cobra.Command, opts *rootOpts, fn func(*app.App) error) error {
	o := app.Options{
		Root:       opts.root,
		ConfigPath: opts.configPath,
		Debug:      opts.debug,
	}
	if cmd.Flags().Changed("api-url") {
		o.APIURL = &opts.apiURL
	}
	if cmd.Flags().Changed("api-key") {
		o.APIKey = &opts.apiKey
	}

	a, err := app.Open(cmd.Context(), o)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a)
}
