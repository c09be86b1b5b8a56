package git

import (
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/masmgr/gitcommits-go/internal/commit"
)

// Source addresses a repository to read: either a local working copy or a
// clone URL, plus optional transport credentials for cloning.
type Source struct {
	Location string
	Auth     transport.AuthMethod
}

// BranchResolution reports how a requested branch name was resolved.
type BranchResolution struct {
	Requested string
	Resolved  string
	Hash      plumbing.Hash
	FellBack  bool
}

// ReadOptions configures the history reader.
type ReadOptions struct {
	Source Source
	Branch string

	// TempDir is the parent directory for ephemeral clones (default: os.TempDir()).
	TempDir string

	// Filter is evaluated per commit before its changed files are computed.
	Filter commit.Filter

	// StrictBranch makes a missing branch an ErrBranchNotFound instead of
	// falling back to HEAD.
	StrictBranch bool

	// OnBranchResolved is called once per walk, before the first commit.
	OnBranchResolved func(BranchResolution)

	Logger *slog.Logger
}

func (o ReadOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
