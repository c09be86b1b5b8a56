package git

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/masmgr/gitcommits-go/internal/commit"
)

// HistoryReader reads commit history from a local working copy or from an
// ephemeral clone of a remote repository.
type HistoryReader struct {
	opts ReadOptions
}

// NewHistoryReader creates a new history reader for the given source.
// Nothing is opened or cloned until Commits is iterated.
func NewHistoryReader(opts ReadOptions) (*HistoryReader, error) {
	if strings.TrimSpace(opts.Source.Location) == "" {
		return nil, errors.New("repository location is empty")
	}
	return &HistoryReader{opts: opts}, nil
}

// Commits walks history from the resolved branch tip in reverse committer-time
// order. The filter runs before files are diffed, and a clone directory is
// removed as soon as iteration stops for any reason.
func (r *HistoryReader) Commits(ctx context.Context) iter.Seq2[commit.Record, error] {
	return func(yield func(commit.Record, error) bool) {
		repo, release, err := r.open(ctx)
		if err != nil {
			yield(commit.Record{}, err)
			return
		}
		defer release()

		res, err := ResolveBranch(repo, r.opts.Branch)
		if errors.Is(err, errEmptyRepository) {
			r.opts.logger().Debug("repository has no commits", slog.String("source", redactURL(r.opts.Source.Location)))
			return
		}
		if err != nil {
			yield(commit.Record{}, fmt.Errorf("resolve branch %q: %w", r.opts.Branch, err))
			return
		}
		if res.FellBack {
			if r.opts.StrictBranch {
				yield(commit.Record{}, fmt.Errorf("%w: %q", ErrBranchNotFound, res.Requested))
				return
			}
			r.opts.logger().Info("branch not found, using default branch",
				slog.String("requested", res.Requested),
				slog.String("resolved", res.Resolved))
		}
		if r.opts.OnBranchResolved != nil {
			r.opts.OnBranchResolved(res)
		}

		cIter, err := repo.Log(&git.LogOptions{From: res.Hash, Order: git.LogOrderCommitterTime})
		if err != nil {
			yield(commit.Record{}, fmt.Errorf("read history: %w", err))
			return
		}
		defer cIter.Close()

		err = cIter.ForEach(func(c *object.Commit) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rec := commit.Record{
				Hash:        c.Hash.String(),
				AuthorName:  c.Author.Name,
				AuthorEmail: c.Author.Email,
				Date:        c.Committer.When,
				Message:     c.Message,
			}.Normalize()

			// Committer clocks can be skewed, so an old commit does not end the walk.
			if !r.opts.Filter.Matches(rec) {
				return nil
			}
			rec.FilesChanged = changedFiles(c)

			if !yield(rec, nil) {
				return storer.ErrStop
			}
			return nil
		})
		if err != nil {
			yield(commit.Record{}, fmt.Errorf("read history: %w", err))
		}
	}
}

// open returns the repository and a release func that removes any clone.
func (r *HistoryReader) open(ctx context.Context) (*git.Repository, func(), error) {
	location := r.opts.Source.Location
	if isWorkingCopy(location) {
		repo, err := git.PlainOpen(location)
		if err != nil {
			return nil, nil, fmt.Errorf("open repository %s: %w", location, err)
		}
		return repo, func() {}, nil
	}

	ws, err := NewWorkspace(r.opts.TempDir)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := ws.Release(); err != nil {
			r.opts.logger().Warn("failed to remove clone directory", slog.Any("error", err))
		}
	}

	r.opts.logger().Debug("cloning repository",
		slog.String("url", redactURL(location)),
		slog.String("dir", ws.Dir()))

	repo, err := git.PlainCloneContext(ctx, ws.Dir(), false, &git.CloneOptions{
		URL:        location,
		Auth:       r.opts.Source.Auth,
		NoCheckout: true,
		Tags:       git.NoTags,
	})
	if err != nil {
		release()
		return nil, nil, &CloneError{URL: redactURL(location), Err: err}
	}
	return repo, release, nil
}

// isWorkingCopy reports whether path is a directory holding a .git directory.
func isWorkingCopy(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}
