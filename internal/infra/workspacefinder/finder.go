// Package workspacefinder resolves the workspace a command runs in.
package workspacefinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ports"
)

// ConfigFile marks a workspace root.
const ConfigFile = "tether.yaml"

// Finder walks from a start directory toward the filesystem root and stops
// at the first directory holding Marker.
type Finder struct {
	Marker string
}

func NewFinder() *Finder {
	return &Finder{Marker: ConfigFile}
}

var _ ports.WorkspaceLocator = (*Finder)(nil)

func (f *Finder) FindRoot(start string) (string, error) {
	const op = "workspace.find"

	if start == "" {
		return "", &domain.OpError{Op: op, Kind: domain.KindInvalidConfig, Err: errors.New("no start directory")}
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", &domain.OpError{Op: op, Kind: domain.KindExecution, Path: start, Err: err}
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for cur := dir; ; cur = filepath.Dir(cur) {
		if info, err := os.Stat(filepath.Join(cur, f.Marker)); err == nil && !info.IsDir() {
			return cur, nil
		}
		if filepath.Dir(cur) == cur {
			return "", &domain.OpError{
				Op:   op,
				Kind: domain.KindNotFound,
				Path: dir,
				Err:  fmt.Errorf("no %s here or in any parent: %w", f.Marker, domain.ErrNotFound),
			}
		}
	}
}
