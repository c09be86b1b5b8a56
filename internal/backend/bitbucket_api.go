package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/masmgr/gitcommits-go/internal/commit"
	"github.com/masmgr/gitcommits-go/internal/git"
)

const maxErrorBody = 512

type bitbucketPage struct {
	Values []bitbucketCommit `json:"values"`
	Next   string            `json:"next"`
}

type bitbucketCommit struct {
	Hash    string `json:"hash"`
	Date    string `json:"date"`
	Message string `json:"message"`
	Author  struct {
		Raw  string `json:"raw"`
		User *struct {
			DisplayName string `json:"display_name"`
		} `json:"user"`
	} `json:"author"`
}

type bitbucketDiffstat struct {
	Values []struct {
		New *struct {
			Path string `json:"path"`
		} `json:"new"`
	} `json:"values"`
}

// restClient pages through one repository's commits.
type restClient struct {
	opts   BitbucketOptions
	query  Query
	logger *slog.Logger

	// branches holds the attempt order; branchIdx is the first that worked.
	branches  []string
	branchIdx int
}

func newRESTClient(opts BitbucketOptions, q Query, logger *slog.Logger) *restClient {
	return &restClient{
		opts:     opts,
		query:    q,
		logger:   logger,
		branches: branchCandidates(q.Branch),
	}
}

// branchCandidates returns the requested branch, the complementary default
// branch, and finally no branch at all.
func branchCandidates(branch string) []string {
	if branch == "" {
		return []string{""}
	}
	alt := "main"
	if branch == "main" {
		alt = "master"
	}
	if alt == branch {
		return []string{branch, ""}
	}
	return []string{branch, alt, ""}
}

func (c *restClient) commits(ctx context.Context, yield func(commit.Record, error) bool) {
	limit := c.opts.PageLimit
	for start := 0; ; start += limit {
		if err := ctx.Err(); err != nil {
			yield(commit.Record{}, err)
			return
		}

		page, err := c.page(ctx, start, limit)
		if err != nil {
			yield(commit.Record{}, err)
			return
		}
		c.logger.Debug("fetched Bitbucket commit page",
			slog.String("repository", c.query.Coordinates.Slug()),
			slog.Int("start", start),
			slog.Int("commits", len(page.Values)))
		if len(page.Values) == 0 {
			return
		}

		for _, bc := range page.Values {
			if err := ctx.Err(); err != nil {
				yield(commit.Record{}, err)
				return
			}
			rec, err := recordFromBitbucket(bc)
			if err != nil {
				yield(commit.Record{}, c.upstreamError(err))
				return
			}
			if !c.query.Filter.Matches(rec) {
				continue
			}
			rec.FilesChanged = c.diffstat(ctx, rec.Hash)
			if !yield(rec, nil) {
				return
			}
		}

		if page.Next == "" {
			return
		}
	}
}

// page fetches one page, walking the branch candidates from the last one
// that worked. A successful fallback is kept for later pages.
func (c *restClient) page(ctx context.Context, start, limit int) (*bitbucketPage, error) {
	var firstErr error
	for i := c.branchIdx; i < len(c.branches); i++ {
		branch := c.branches[i]
		var page bitbucketPage
		err := c.getJSON(ctx, c.commitsURL(start, limit, branch), &page)
		if err == nil {
			if i != c.branchIdx {
				c.logger.Info("Bitbucket rejected branch, using fallback",
					slog.String("requested", c.branches[c.branchIdx]),
					slog.String("fallback", branch))
				c.query.branchResolved(git.BranchResolution{
					Requested: c.query.Branch,
					Resolved:  branch,
					FellBack:  true,
				})
			}
			c.branchIdx = i
			return &page, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	upErr := c.upstreamError(firstErr)
	upErr.Branches = append([]string(nil), c.branches[c.branchIdx:]...)
	return nil, upErr
}

func (c *restClient) diffstat(ctx context.Context, hash string) []string {
	var stat bitbucketDiffstat
	if err := c.getJSON(ctx, c.repoURL("diffstat", hash), &stat); err != nil {
		c.logger.Debug("failed to fetch diffstat",
			slog.String("commit", hash),
			slog.Any("error", err))
		return []string{}
	}
	files := make([]string, 0, len(stat.Values))
	for _, v := range stat.Values {
		if v.New != nil && v.New.Path != "" {
			files = append(files, v.New.Path)
		}
	}
	return files
}

func (c *restClient) repoURL(parts ...string) string {
	segs := []string{
		c.opts.APIURL,
		"repositories",
		url.PathEscape(c.query.Coordinates.Owner),
		url.PathEscape(c.query.Coordinates.Name),
	}
	for _, p := range parts {
		segs = append(segs, url.PathEscape(p))
	}
	return strings.Join(segs, "/")
}

// commitsURL sends the start/limit offset window. pagelen carries the same
// size for Bitbucket Cloud, whose page cursor is opaque and never synthesized.
func (c *restClient) commitsURL(start, limit int, branch string) string {
	params := url.Values{}
	params.Set("start", strconv.Itoa(start))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("pagelen", strconv.Itoa(limit))
	if branch != "" {
		params.Set("include", branch)
	}
	return c.repoURL("commits") + "?" + params.Encode()
}

func (c *restClient) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	creds := c.query.Credentials
	switch user := requestUser(c.query); {
	case user != "" && creds.Token != "":
		req.SetBasicAuth(user, creds.Token)
	case creds.Token != "":
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			URL:        rawURL,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *restClient) upstreamError(err error) *UpstreamError {
	upErr := &UpstreamError{
		Backend:    "bitbucket",
		Repository: c.query.Coordinates.Slug(),
		Err:        err,
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		upErr.StatusCode = statusErr.StatusCode
	}
	return upErr
}

// recordFromBitbucket prefers the linked account display name; the raw
// "Name <email>" author supplies the email and, failing that, the name.
func recordFromBitbucket(bc bitbucketCommit) (commit.Record, error) {
	var name, email string
	if bc.Author.User != nil {
		name = bc.Author.User.DisplayName
	}
	if rawName, rawEmail, ok := parseRawAuthor(bc.Author.Raw); ok {
		email = rawEmail
		if name == "" {
			name = rawName
		}
	}

	date, err := time.Parse(time.RFC3339, bc.Date)
	if err != nil {
		return commit.Record{}, fmt.Errorf("commit %s: invalid date %q: %w", bc.Hash, bc.Date, err)
	}

	rec := commit.Record{
		Hash:        bc.Hash,
		AuthorName:  name,
		AuthorEmail: email,
		Date:        date,
		Message:     bc.Message,
	}.Normalize()
	return rec, rec.Validate()
}

func parseRawAuthor(raw string) (name, email string, ok bool) {
	open := strings.Index(raw, "<")
	if open < 0 {
		return "", "", false
	}
	end := strings.Index(raw[open:], ">")
	if end < 0 {
		return "", "", false
	}
	return strings.TrimSpace(raw[:open]), raw[open+1 : open+end], true
}
