// Package server exposes commit retrieval over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/masmgr/gitcommits-go/internal/backend"
	"github.com/masmgr/gitcommits-go/internal/git"
	"github.com/masmgr/gitcommits-go/internal/locator"
	"github.com/masmgr/gitcommits-go/internal/service"
)

const maxRequestBody = 1 << 20

// Fetcher runs one retrieval request.
type Fetcher interface {
	Fetch(ctx context.Context, req service.Request) (*service.Response, error)
}

var _ Fetcher = (*service.Service)(nil)

// Options configures the HTTP boundary.
type Options struct {
	// RequestTimeout bounds one retrieval. Zero means no limit beyond the client's.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Server maps HTTP requests onto a Fetcher.
type Server struct {
	fetcher Fetcher
	opts    Options
}

// New creates a server.
func New(fetcher Fetcher, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{fetcher: fetcher, opts: opts}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /commits", s.handleCommits)
	mux.HandleFunc("POST /commits/{$}", s.handleCommits)
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// commitsRequest is the wire form of service.Request. Dates accept RFC 3339
// or a bare YYYY-MM-DD.
type commitsRequest struct {
	RepoPath     *string `json:"repo_path"`
	RepoType     string  `json:"repo_type"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Branch       string  `json:"branch"`
	AuthToken    string  `json:"auth_token"`
	AuthUsername string  `json:"auth_username"`
}

// requestError is a malformed request body.
type requestError struct {
	Field string
	Msg   string
}

func (e *requestError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func (r commitsRequest) toService() (service.Request, error) {
	if r.RepoPath == nil || strings.TrimSpace(*r.RepoPath) == "" {
		return service.Request{}, &requestError{Field: "repo_path", Msg: "this field is required"}
	}
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return service.Request{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return service.Request{}, err
	}
	return service.Request{
		RepoPath:     *r.RepoPath,
		RepoType:     r.RepoType,
		Username:     r.Username,
		Email:        r.Email,
		StartDate:    start,
		EndDate:      end,
		Branch:       r.Branch,
		AuthToken:    r.AuthToken,
		AuthUsername: r.AuthUsername,
	}, nil
}

func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, &requestError{Field: field, Msg: fmt.Sprintf("invalid datetime %q (expected ISO 8601)", s)}
}

func (s *Server) handleCommits(w http.ResponseWriter, r *http.Request) {
	var body commitsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	req, err := body.toService()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		status := statusFor(err)
		s.opts.Logger.Warn("commit retrieval failed",
			slog.String("repo_path", req.RepoPath),
			slog.String("repo_type", req.RepoType),
			slog.Int("status", status),
			slog.Any("error", err))
		writeError(w, status, err.Error())
		return
	}

	s.opts.Logger.Info("commits retrieved",
		slog.String("repository", resp.Repository),
		slog.Int("count", resp.CommitsCount),
		slog.Duration("elapsed", time.Since(started)))
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps a retrieval failure to an HTTP status. Problems the caller
// can fix are 4xx; upstream outages are 502.
func statusFor(err error) int {
	var upErr *backend.UpstreamError
	switch {
	case errors.Is(err, locator.ErrInvalidRepositoryPath),
		errors.Is(err, git.ErrBranchNotFound),
		errors.Is(err, service.ErrUnsupportedRepoType),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, gogit.ErrRepositoryNotExists):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &upErr):
		switch upErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case errors.Is(err, git.ErrCloneFailed):
		if errors.Is(err, transport.ErrAuthenticationRequired) ||
			errors.Is(err, transport.ErrAuthorizationFailed) ||
			errors.Is(err, transport.ErrRepositoryNotFound) {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
