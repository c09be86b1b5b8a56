package git

import (
	"fmt"
	"os"
)

const workspacePattern = "gitcommits-clone-*"

// Workspace is a unique, request-scoped directory for an ephemeral clone.
type Workspace struct {
	dir string
}

// NewWorkspace creates a fresh directory under base (os.TempDir() when empty).
func NewWorkspace(base string) (*Workspace, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, fmt.Errorf("create clone base directory: %w", err)
		}
	}
	dir, err := os.MkdirTemp(base, workspacePattern)
	if err != nil {
		return nil, fmt.Errorf("create clone directory: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Release removes the workspace and everything in it. Safe to call twice.
func (w *Workspace) Release() error {
	if w.dir == "" {
		return nil
	}
	err := os.RemoveAll(w.dir)
	w.dir = ""
	return err
}
