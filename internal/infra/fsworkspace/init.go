// Package fsworkspace lays out a tether workspace on disk.
package fsworkspace

import (
	"bytes"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/google/renameio/v2"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/ports"
)

const (
	defaultDataDir = "data"
	exportsDir     = "exports"
	stateDir       = ".tether"
	templateExt    = ".tmpl"
	ignoreHeader   = "# tether"
)

// Initializer writes the starter config, the data, export and log
// directories, and the .gitignore entries that keep them out of git.
type Initializer struct{}

func NewInitializer() *Initializer {
	return &Initializer{}
}

var _ ports.WorkspaceInitializer = (*Initializer)(nil)

// layout is what one workspace needs on disk.
type layout struct {
	Root    string
	DataDir string
}

func newLayout(spec domain.WorkspaceSpec) layout {
	dataDir := filepath.ToSlash(filepath.Clean(strings.TrimSpace(spec.DataDir)))
	if dataDir == "" || dataDir == "." {
		dataDir = defaultDataDir
	}
	return layout{Root: filepath.Clean(spec.Root), DataDir: dataDir}
}

func (l layout) dirs() []string {
	return []string{
		filepath.Join(l.Root, filepath.FromSlash(l.DataDir)),
		filepath.Join(l.Root, exportsDir),
		filepath.Join(l.Root, stateDir, "logs"),
	}
}

func (l layout) ignored() []string {
	return []string{
		strings.TrimSuffix(l.DataDir, "/") + "/",
		exportsDir + "/",
		stateDir + "/",
	}
}

// Init is idempotent: existing files are kept unless force is set, and
// .gitignore only gains the entries it lacks.
func (i *Initializer) Init(spec domain.WorkspaceSpec, force bool) error {
	l := newLayout(spec)

	for _, d := range l.dirs() {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return initError(d, err)
		}
	}

	if err := ensureGitignore(l.Root, l.ignored()); err != nil {
		return initError(filepath.Join(l.Root, ".gitignore"), err)
	}

	return fs.WalkDir(templatesFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return initError(p, err)
		}
		if d.IsDir() {
			return nil
		}
		return l.writeTemplate(p, force)
	})
}

func (l layout) writeTemplate(src string, force bool) error {
	rel := strings.TrimSuffix(strings.TrimPrefix(src, "templates/"), templateExt)
	dst := filepath.Join(l.Root, filepath.FromSlash(rel))

	if !force {
		if _, err := os.Stat(dst); err == nil {
			return nil
		}
	}

	b, err := fs.ReadFile(templatesFS, src)
	if err != nil {
		return initError(src, err)
	}
	if path.Ext(src) == templateExt {
		tpl, err := template.New(path.Base(src)).Option("missingkey=error").Parse(string(b))
		if err != nil {
			return initError(src, err)
		}
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, l); err != nil {
			return initError(src, err)
		}
		b = buf.Bytes()
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return initError(dst, err)
	}
	// tether.yaml may end up holding an API key.
	if err := renameio.WriteFile(dst, b, 0o600); err != nil {
		return initError(dst, err)
	}
	return nil
}

func initError(path string, err error) error {
	return &domain.OpError{Op: "workspace.init", Kind: domain.KindExecution, Path: path, Err: err}
}

// ensureGitignore appends the entries .gitignore lacks under a "# tether"
// header, creating the file when needed.
func ensureGitignore(root string, entries []string) error {
	p := filepath.Join(root, ".gitignore")

	b, err := os.ReadFile(p)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	existing := string(b)

	present := map[string]bool{}
	for _, line := range strings.Split(existing, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			present[line] = true
		}
	}

	var missing []string
	for _, e := range entries {
		if !present[e] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var out strings.Builder
	out.WriteString(existing)
	if existing != "" {
		if !strings.HasSuffix(existing, "\n") {
			out.WriteByte('\n')
		}
		out.WriteByte('\n')
	}
	if !present[ignoreHeader] {
		out.WriteString(ignoreHeader + "\n")
	}
	out.WriteString(strings.Join(missing, "\n") + "\n")

	return os.WriteFile(p, []byte(out.String()), 0o644)
}
