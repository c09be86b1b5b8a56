// Package backend retrieves commit history from one repository host.
//
// Every backend yields normalized, filtered records lazily and newest first.
// The service layer picks one backend per request by repository kind.
package backend

import (
	"context"
	"iter"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/masmgr/gitcommits-go/internal/commit"
	"github.com/masmgr/gitcommits-go/internal/git"
	"github.com/masmgr/gitcommits-go/internal/locator"
)

// Credentials are the optional caller-supplied secrets for one request.
type Credentials struct {
	Token    string
	Username string
}

// Query is one retrieval request addressed to a single backend.
type Query struct {
	Coordinates locator.Coordinates
	Branch      string
	Filter      commit.Filter
	Credentials Credentials

	// OnBranchResolved is called when the backend settles on a branch,
	// including when it used something other than Branch.
	OnBranchResolved func(git.BranchResolution)
}

func (q Query) branchResolved(res git.BranchResolution) {
	if q.OnBranchResolved != nil {
		q.OnBranchResolved(res)
	}
}

// Backend is implemented once per repository host.
type Backend interface {
	Kind() locator.Kind
	Commits(ctx context.Context, q Query) iter.Seq2[commit.Record, error]
}

// Compile-time interface conformance checks.
var (
	_ Backend = (*Local)(nil)
	_ Backend = (*GitHub)(nil)
	_ Backend = (*Bitbucket)(nil)
)

// Collect drains seq. The first error discards everything collected so far.
func Collect(seq iter.Seq2[commit.Record, error]) ([]commit.Record, error) {
	records := []commit.Record{}
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// basicAuth returns clone credentials when both a username and a token are set.
func basicAuth(c Credentials) transport.AuthMethod {
	if c.Username == "" || c.Token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: c.Username, Password: c.Token}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
