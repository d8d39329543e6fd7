package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aalvaropc/tether/internal/infra/fsworkspace"
	"github.com/aalvaropc/tether/internal/ports"
	"github.com/aalvaropc/tether/internal/usecase"
)

// resolveRoot returns the --workspace path, else the workspace above the
// working directory, else the working directory itself.
func resolveRoot(locator ports.WorkspaceLocator, workspaceFlag string) (string, error) {
	w := strings.TrimSpace(workspaceFlag)
	if w != "" {
		abs, err := filepath.Abs(w)
		if err != nil {
			return "", fmt.Errorf("invalid workspace path: %w", err)
		}
		return abs, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	root, err := locator.FindRoot(wd)
	if err != nil {
		return wd, nil
	}
	return root, nil
}

func initCmd(opts *rootOpts) *cobra.Command {
	var (
		dataDir string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter tether.yaml, data directory and .gitignore entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := usecase.NewInitWorkspace(fsworkspace.NewInitializer())
			if err := uc.Execute(opts.root, dataDir, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized tether workspace in %s\n", opts.root)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "Directory for the local repository, relative to the workspace")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing template files")
	return cmd
}
