package domain

// WorkspaceSpec describes a workspace to initialize.
type WorkspaceSpec struct {
	Root string
	// DataDir holds store files, relative to Root.
	DataDir string
}
