package git

import (
	"context"
	"iter"

	"github.com/masmgr/gitcommits-go/internal/commit"
)

// RepositoryReader defines the interface for reading Git repository history.
// This abstraction allows for easier testing and potential alternative implementations.
type RepositoryReader interface {
	// Commits lazily yields filtered commit records, newest first.
	// Resources acquired for the walk are released when iteration ends.
	Commits(ctx context.Context) iter.Seq2[commit.Record, error]
}

// ReaderFactory builds a reader for one walk.
type ReaderFactory func(opts ReadOptions) (RepositoryReader, error)

// Compile-time interface conformance check.
var _ RepositoryReader = (*HistoryReader)(nil)

// NewReader is the default ReaderFactory.
func NewReader(opts ReadOptions) (RepositoryReader, error) {
	return NewHistoryReader(opts)
}
