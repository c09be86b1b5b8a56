package backend

import (
	"context"
	"iter"
	"log/slog"

	"github.com/masmgr/gitcommits-go/internal/commit"
	"github.com/masmgr/gitcommits-go/internal/git"
	"github.com/masmgr/gitcommits-go/internal/locator"
)

// LocalOptions configures the local backend.
type LocalOptions struct {
	// TempDir is the parent directory for clones of remote URLs.
	TempDir string
	// StrictBranch fails on a missing branch instead of using HEAD.
	StrictBranch bool
	Logger       *slog.Logger
}

// Local reads history from a working copy on disk or from a clone URL.
type Local struct {
	opts      LocalOptions
	newReader git.ReaderFactory
}

// NewLocal creates a local backend.
func NewLocal(opts LocalOptions) *Local {
	return &Local{opts: opts, newReader: git.NewReader}
}

func (l *Local) Kind() locator.Kind { return locator.KindLocal }

func (l *Local) Commits(ctx context.Context, q Query) iter.Seq2[commit.Record, error] {
	return func(yield func(commit.Record, error) bool) {
		reader, err := l.newReader(git.ReadOptions{
			Source: git.Source{
				Location: q.Coordinates.Path,
				Auth:     basicAuth(q.Credentials),
			},
			Branch:           q.Branch,
			TempDir:          l.opts.TempDir,
			Filter:           q.Filter,
			StrictBranch:     l.opts.StrictBranch,
			OnBranchResolved: q.branchResolved,
			Logger:           loggerOrDefault(l.opts.Logger),
		})
		if err != nil {
			yield(commit.Record{}, err)
			return
		}
		for rec, err := range reader.Commits(ctx) {
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}
