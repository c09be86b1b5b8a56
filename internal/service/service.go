// Package service dispatches one commit retrieval request to the backend
// selected by its repository type and shapes the response.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/masmgr/gitcommits-go/config"
	"github.com/masmgr/gitcommits-go/internal/backend"
	"github.com/masmgr/gitcommits-go/internal/commit"
	"github.com/masmgr/gitcommits-go/internal/git"
	"github.com/masmgr/gitcommits-go/internal/locator"
)

var (
	// ErrUnsupportedRepoType is returned for a repository type without a backend.
	ErrUnsupportedRepoType = errors.New("unsupported repository type")
	// ErrInvalidDateRange is returned when start_date is after end_date.
	ErrInvalidDateRange = errors.New("start_date must not be after end_date")
)

// Request is one retrieval call, one backend per call.
type Request struct {
	RepoPath     string     `json:"repo_path"`
	RepoType     string     `json:"repo_type,omitempty"`
	Username     string     `json:"username,omitempty"`
	Email        string     `json:"email,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Branch       string     `json:"branch,omitempty"`
	AuthToken    string     `json:"auth_token,omitempty"`
	AuthUsername string     `json:"auth_username,omitempty"`
}

// Filters echoes the applied filters; unset fields serialize as null.
type Filters struct {
	Username  *string    `json:"username"`
	Email     *string    `json:"email"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// Response is the result of one retrieval.
type Response struct {
	Repository   string          `json:"repository"`
	RepoType     locator.Kind    `json:"repo_type"`
	Branch       string          `json:"branch"`
	Filters      Filters         `json:"filters"`
	CommitsCount int             `json:"commits_count"`
	Commits      []commit.Record `json:"commits"`
	Warnings     []string        `json:"warnings,omitempty"`
	GeneratedAt  time.Time       `json:"-"`
}

// Options configures dispatch defaults.
type Options struct {
	DefaultRepoType locator.Kind
	DefaultBranch   string
	PathFilter      commit.PathFilter
	Logger          *slog.Logger
}

// Service selects a backend by repository type.
type Service struct {
	opts     Options
	backends map[locator.Kind]backend.Backend
}

// New creates a service over the given backends.
func New(opts Options, backends ...backend.Backend) *Service {
	if opts.DefaultRepoType == "" {
		opts.DefaultRepoType = locator.KindGitHub
	}
	if opts.DefaultBranch == "" {
		opts.DefaultBranch = "main"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Service{opts: opts, backends: make(map[locator.Kind]backend.Backend, len(backends))}
	for _, b := range backends {
		s.backends[b.Kind()] = b
	}
	return s
}

// FromConfig wires the three backends from configuration.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	defaultKind, err := locator.ParseKind(cfg.DefaultRepoType)
	if err != nil {
		return nil, fmt.Errorf("defaultRepoType: %w", err)
	}
	pathFilter := commit.PathFilter{Include: cfg.Filters.Include, Exclude: cfg.Filters.Exclude}
	if err := pathFilter.Validate(); err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second}

	return New(
		Options{
			DefaultRepoType: defaultKind,
			DefaultBranch:   cfg.DefaultBranch,
			PathFilter:      pathFilter,
			Logger:          logger,
		},
		backend.NewLocal(backend.LocalOptions{
			TempDir:      cfg.Clone.TempDir,
			StrictBranch: cfg.Local.StrictBranch,
			Logger:       logger,
		}),
		backend.NewGitHub(backend.GitHubOptions{
			BaseURL:    cfg.GitHub.BaseURL,
			PerPage:    cfg.GitHub.PerPage,
			HTTPClient: httpClient,
			Logger:     logger,
		}),
		backend.NewBitbucket(backend.BitbucketOptions{
			APIURL:      cfg.Bitbucket.APIURL,
			GitURL:      cfg.Bitbucket.GitURL,
			PageLimit:   cfg.Bitbucket.PageLimit,
			GitFastPath: cfg.Bitbucket.GitFastPath,
			TempDir:     cfg.Clone.TempDir,
			HTTPClient:  httpClient,
			Logger:      logger,
		}),
	), nil
}

// Fetch runs one request to completion. Results are all-or-nothing.
func (s *Service) Fetch(ctx context.Context, req Request) (*Response, error) {
	kind := s.opts.DefaultRepoType
	if req.RepoType != "" {
		parsed, err := locator.ParseKind(req.RepoType)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedRepoType, req.RepoType)
		}
		kind = parsed
	}
	b, ok := s.backends[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRepoType, kind)
	}

	if req.StartDate != nil && req.EndDate != nil && req.StartDate.After(*req.EndDate) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidDateRange,
			req.StartDate.Format(time.RFC3339), req.EndDate.Format(time.RFC3339))
	}

	coords, err := locator.Resolve(req.RepoPath, kind)
	if err != nil {
		return nil, err
	}

	branch := req.Branch
	if branch == "" {
		branch = s.opts.DefaultBranch
	}

	var warnings []string
	q := backend.Query{
		Coordinates: coords,
		Branch:      branch,
		Filter: commit.Filter{
			Username: req.Username,
			Email:    req.Email,
			Since:    req.StartDate,
			Until:    req.EndDate,
		},
		Credentials: backend.Credentials{Token: req.AuthToken, Username: req.AuthUsername},
		OnBranchResolved: func(res git.BranchResolution) {
			if res.FellBack {
				warnings = append(warnings, fallbackWarning(res))
			}
		},
	}

	s.opts.Logger.Debug("fetching commits",
		slog.String("repo_type", string(kind)),
		slog.String("repository", coords.Slug()),
		slog.String("branch", branch))

	records, err := backend.Collect(b.Commits(ctx, q))
	if err != nil {
		return nil, err
	}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s repository %s: %w", kind, coords.Slug(), err)
		}
		records[i].FilesChanged = s.opts.PathFilter.Apply(records[i].FilesChanged)
	}

	return &Response{
		Repository:   req.RepoPath,
		RepoType:     kind,
		Branch:       branch,
		Filters:      echoFilters(req),
		CommitsCount: len(records),
		Commits:      records,
		Warnings:     warnings,
		GeneratedAt:  time.Now(),
	}, nil
}

func fallbackWarning(res git.BranchResolution) string {
	if res.Resolved == "" {
		return fmt.Sprintf("branch %q not found; returned history without a branch filter", res.Requested)
	}
	return fmt.Sprintf("branch %q not found; returned history of %q instead", res.Requested, res.Resolved)
}

func echoFilters(req Request) Filters {
	f := Filters{StartDate: req.StartDate, EndDate: req.EndDate}
	if req.Username != "" {
		f.Username = &req.Username
	}
	if req.Email != "" {
		f.Email = &req.Email
	}
	return f
}
