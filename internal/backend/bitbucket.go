package backend

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/masmgr/gitcommits-go/internal/commit"
	"github.com/masmgr/gitcommits-go/internal/git"
	"github.com/masmgr/gitcommits-go/internal/locator"
)

const (
	defaultBitbucketAPIURL    = "https://api.bitbucket.org/2.0"
	defaultBitbucketGitURL    = "https://bitbucket.org"
	defaultBitbucketPageLimit = 50
)

// BitbucketOptions configures the Bitbucket backend.
type BitbucketOptions struct {
	APIURL    string
	GitURL    string
	PageLimit int

	// GitFastPath clones over the git protocol before falling back to REST.
	GitFastPath bool
	TempDir     string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Bitbucket lists commits from Bitbucket Cloud, trying a direct clone first.
type Bitbucket struct {
	opts      BitbucketOptions
	newReader git.ReaderFactory
}

// NewBitbucket creates a Bitbucket backend.
func NewBitbucket(opts BitbucketOptions) *Bitbucket {
	if opts.APIURL == "" {
		opts.APIURL = defaultBitbucketAPIURL
	}
	if opts.GitURL == "" {
		opts.GitURL = defaultBitbucketGitURL
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	opts.GitURL = strings.TrimRight(opts.GitURL, "/")
	if opts.PageLimit <= 0 {
		opts.PageLimit = defaultBitbucketPageLimit
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Bitbucket{opts: opts, newReader: git.NewReader}
}

func (b *Bitbucket) Kind() locator.Kind { return locator.KindBitbucket }

// Commits returns fast-path results when the clone produced any, otherwise
// the REST listing.
func (b *Bitbucket) Commits(ctx context.Context, q Query) iter.Seq2[commit.Record, error] {
	return func(yield func(commit.Record, error) bool) {
		logger := loggerOrDefault(b.opts.Logger)

		if b.opts.GitFastPath {
			records, res, err := b.fastPath(ctx, q)
			switch {
			case err == nil && len(records) > 0:
				logger.Debug("fetched commits over git",
					slog.String("repository", q.Coordinates.Slug()),
					slog.Int("commits", len(records)))
				if res != nil {
					q.branchResolved(*res)
				}
				for _, rec := range records {
					if !yield(rec, nil) {
						return
					}
				}
				return
			case err != nil:
				logger.Info("git fast path failed, using REST API",
					slog.String("repository", q.Coordinates.Slug()),
					slog.Any("error", err))
			default:
				logger.Debug("git fast path returned no commits, using REST API",
					slog.String("repository", q.Coordinates.Slug()))
			}
			if err := ctx.Err(); err != nil {
				yield(commit.Record{}, err)
				return
			}
		}

		newRESTClient(b.opts, q, logger).commits(ctx, yield)
	}
}

// fastPath walks a full clone. The clone directory is removed before it returns.
func (b *Bitbucket) fastPath(ctx context.Context, q Query) ([]commit.Record, *git.BranchResolution, error) {
	var res *git.BranchResolution
	reader, err := b.newReader(git.ReadOptions{
		Source: git.Source{
			Location: b.cloneURL(q.Coordinates),
			Auth:     basicAuth(q.Credentials),
		},
		Branch:  q.Branch,
		TempDir: b.opts.TempDir,
		Filter:  q.Filter,
		OnBranchResolved: func(r git.BranchResolution) {
			res = &r
		},
		Logger: loggerOrDefault(b.opts.Logger),
	})
	if err != nil {
		return nil, nil, err
	}
	records, err := Collect(reader.Commits(ctx))
	if err != nil {
		return nil, nil, err
	}
	return records, res, nil
}

func (b *Bitbucket) cloneURL(c locator.Coordinates) string {
	return b.opts.GitURL + "/" + c.Owner + "/" + c.Name + ".git"
}

// requestUser picks the identity for REST calls: explicit first, then the
// user embedded in the repository URL.
func requestUser(q Query) string {
	if q.Credentials.Username != "" {
		return q.Credentials.Username
	}
	return q.Coordinates.Username
}
