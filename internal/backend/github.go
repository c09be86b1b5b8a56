package backend

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"

	"github.com/masmgr/gitcommits-go/internal/commit"
	"github.com/masmgr/gitcommits-go/internal/locator"
)

const defaultGitHubPerPage = 100

// GitHubOptions configures the GitHub backend.
type GitHubOptions struct {
	// BaseURL overrides the REST endpoint, e.g. for GitHub Enterprise.
	BaseURL    string
	PerPage    int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// GitHub lists commits through the GitHub REST API.
type GitHub struct {
	opts GitHubOptions
}

// NewGitHub creates a GitHub backend.
func NewGitHub(opts GitHubOptions) *GitHub {
	if opts.PerPage <= 0 || opts.PerPage > 100 {
		opts.PerPage = defaultGitHubPerPage
	}
	return &GitHub{opts: opts}
}

func (g *GitHub) Kind() locator.Kind { return locator.KindGitHub }

func (g *GitHub) client(token string) (*github.Client, error) {
	client := github.NewClient(g.opts.HTTPClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if g.opts.BaseURL != "" {
		base := g.opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", g.opts.BaseURL, err)
		}
		client.BaseURL = u
	}
	return client, nil
}

// Commits pages through the branch history. Files are fetched per commit that
// passes the filter.
func (g *GitHub) Commits(ctx context.Context, q Query) iter.Seq2[commit.Record, error] {
	return func(yield func(commit.Record, error) bool) {
		logger := loggerOrDefault(g.opts.Logger)
		owner, repo := q.Coordinates.Owner, q.Coordinates.Name

		client, err := g.client(q.Credentials.Token)
		if err != nil {
			yield(commit.Record{}, err)
			return
		}
		if q.Credentials.Token == "" {
			logger.Debug("using unauthenticated GitHub access", slog.String("repository", q.Coordinates.Slug()))
		}

		opts := &github.CommitsListOptions{
			SHA:         q.Branch,
			ListOptions: github.ListOptions{PerPage: g.opts.PerPage},
		}
		for {
			if err := ctx.Err(); err != nil {
				yield(commit.Record{}, err)
				return
			}

			page, resp, err := client.Repositories.ListCommits(ctx, owner, repo, opts)
			if err != nil {
				yield(commit.Record{}, g.upstreamError(q, resp, err))
				return
			}
			logger.Debug("fetched GitHub commit page",
				slog.String("repository", q.Coordinates.Slug()),
				slog.Int("page", max(opts.Page, 1)),
				slog.Int("commits", len(page)))

			for _, rc := range page {
				if err := ctx.Err(); err != nil {
					yield(commit.Record{}, err)
					return
				}
				rec := recordFromGitHub(rc)
				if !q.Filter.Matches(rec) {
					continue
				}
				files, err := g.changedFiles(ctx, client, owner, repo, rec.Hash)
				if err != nil {
					if ctx.Err() != nil {
						yield(commit.Record{}, ctx.Err())
						return
					}
					logger.Debug("failed to fetch changed files",
						slog.String("commit", rec.Hash),
						slog.Any("error", err))
				}
				rec.FilesChanged = files
				if !yield(rec.Normalize(), nil) {
					return
				}
			}

			if resp == nil || resp.NextPage == 0 {
				return
			}
			opts.Page = resp.NextPage
		}
	}
}

// changedFiles lists every file of one commit; large commits span several pages.
func (g *GitHub) changedFiles(ctx context.Context, client *github.Client, owner, repo, sha string) ([]string, error) {
	files := []string{}
	opts := &github.ListOptions{PerPage: g.opts.PerPage}
	for {
		rc, resp, err := client.Repositories.GetCommit(ctx, owner, repo, sha, opts)
		if err != nil {
			return []string{}, err
		}
		for _, f := range rc.Files {
			if name := f.GetFilename(); name != "" {
				files = append(files, name)
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

func (g *GitHub) upstreamError(q Query, resp *github.Response, err error) error {
	upErr := &UpstreamError{
		Backend:    "github",
		Repository: q.Coordinates.Slug(),
		Err:        err,
	}
	if q.Branch != "" {
		upErr.Branches = []string{q.Branch}
	}
	if resp != nil && resp.Response != nil {
		upErr.StatusCode = resp.StatusCode
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		upErr.Err = fmt.Errorf("rate limit exceeded, resets at %s: %w",
			rateErr.Rate.Reset.Time.UTC().Format(time.RFC3339), err)
	}
	return upErr
}

// recordFromGitHub prefers the account login over the commit author name.
func recordFromGitHub(rc *github.RepositoryCommit) commit.Record {
	author := rc.GetCommit().GetAuthor()
	name := rc.GetAuthor().GetLogin()
	if name == "" {
		name = author.GetName()
	}
	return commit.Record{
		Hash:        rc.GetSHA(),
		AuthorName:  name,
		AuthorEmail: author.GetEmail(),
		Date:        author.GetDate().Time,
		Message:     rc.GetCommit().GetMessage(),
	}.Normalize()
}
