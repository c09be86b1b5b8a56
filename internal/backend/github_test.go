package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v75/github"

	"github.com/masmgr/gitcommits-go/internal/commit"
	"github.com/masmgr/gitcommits-go/internal/locator"
)

const githubPage1 = `[
  {"sha": "c3", "commit": {"author": {"name": "Alice Example", "email": "alice@example.com", "date": "2024-03-03T12:00:00Z"}, "message": "third\n"}, "author": {"login": "alice"}},
  {"sha": "c2", "commit": {"author": {"name": "Bob", "email": "bob@example.com", "date": "2024-03-02T14:00:00+02:00"}, "message": "second"}, "author": null}
]`

const githubPage2 = `[
  {"sha": "c1", "commit": {"author": {"name": "", "email": "", "date": "2024-03-01T12:00:00Z"}, "message": "first"}}
]`

type githubFixture struct {
	server     *httptest.Server
	listCalls  atomic.Int32
	fileCalls  atomic.Int32
	lastSHA    atomic.Value
	authHeader atomic.Value
}

func newGitHubFixture(t *testing.T) *githubFixture {
	t.Helper()
	f := &githubFixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octocat/hello/commits", func(w http.ResponseWriter, r *http.Request) {
		f.listCalls.Add(1)
		f.lastSHA.Store(r.URL.Query().Get("sha"))
		f.authHeader.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, githubPage2)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octocat/hello/commits?page=2>; rel="next"`, f.server.URL))
		fmt.Fprint(w, githubPage1)
	})
	mux.HandleFunc("GET /repos/octocat/hello/commits/{sha}", func(w http.ResponseWriter, r *http.Request) {
		f.fileCalls.Add(1)
		sha := r.PathValue("sha")
		if sha == "c2" {
			http.Error(w, `{"message": "server error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"sha": %q, "files": [{"filename": "%s.go"}, {"filename": "README.md"}]}`, sha, sha)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *githubFixture) backend() *GitHub {
	return NewGitHub(GitHubOptions{BaseURL: f.server.URL, PerPage: 2})
}

func githubQuery() Query {
	return Query{
		Coordinates: locator.Coordinates{Kind: locator.KindGitHub, Owner: "octocat", Name: "hello"},
		Branch:      "master",
	}
}

func TestGitHub_Commits_PaginatesAndNormalizes(t *testing.T) {
	f := newGitHubFixture(t)

	out, err := Collect(f.backend().Commits(context.Background(), githubQuery()))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if f.listCalls.Load() != 2 {
		t.Errorf("list calls = %d, expected 2", f.listCalls.Load())
	}
	if sha, _ := f.lastSHA.Load().(string); sha != "master" {
		t.Errorf("sha param = %q, expected master", sha)
	}

	hashes := []string{}
	for _, r := range out {
		hashes = append(hashes, r.Hash)
	}
	if !reflect.DeepEqual(hashes, []string{"c3", "c2", "c1"}) {
		t.Fatalf("hashes = %v", hashes)
	}

	tests := []struct {
		name   string
		rec    commit.Record
		author string
		email  string
		files  []string
	}{
		{name: "login preferred", rec: out[0], author: "alice", email: "alice@example.com", files: []string{"c3.go", "README.md"}},
		{name: "commit author fallback", rec: out[1], author: "Bob", email: "bob@example.com", files: []string{}},
		{name: "sentinels", rec: out[2], author: commit.UnknownAuthorName, email: commit.UnknownAuthorEmail, files: []string{"c1.go", "README.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.rec.AuthorName != tt.author || tt.rec.AuthorEmail != tt.email {
				t.Errorf("author = %q <%s>", tt.rec.AuthorName, tt.rec.AuthorEmail)
			}
			if !reflect.DeepEqual(tt.rec.FilesChanged, tt.files) {
				t.Errorf("files = %#v, expected %#v", tt.rec.FilesChanged, tt.files)
			}
			if tt.rec.Date.Location() != time.UTC {
				t.Errorf("date %v not in UTC", tt.rec.Date)
			}
		})
	}

	if !out[1].Date.Equal(time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("offset date not normalized: %v", out[1].Date)
	}
	if out[0].Message != "third\n" {
		t.Errorf("message = %q", out[0].Message)
	}
}

func TestGitHub_Commits_FilterBeforeFiles(t *testing.T) {
	f := newGitHubFixture(t)
	q := githubQuery()
	q.Filter = commit.Filter{Username: "ALICE"}

	out, err := Collect(f.backend().Commits(context.Background(), q))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 1 || out[0].Hash != "c3" {
		t.Fatalf("records = %+v", out)
	}
	if f.fileCalls.Load() != 1 {
		t.Errorf("file lookups = %d, expected 1", f.fileCalls.Load())
	}
}

func TestGitHub_Commits_NoMatchIsEmpty(t *testing.T) {
	f := newGitHubFixture(t)
	q := githubQuery()
	q.Filter = commit.Filter{Username: "nonexistent-user-zzz"}

	out, err := Collect(f.backend().Commits(context.Background(), q))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("records = %d, expected 0", len(out))
	}
}

func TestGitHub_Commits_Token(t *testing.T) {
	f := newGitHubFixture(t)
	q := githubQuery()
	q.Credentials.Token = "ghp_test"

	if _, err := Collect(f.backend().Commits(context.Background(), q)); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got, _ := f.authHeader.Load().(string); got != "Bearer ghp_test" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestGitHub_Commits_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers map[string]string
		body    string
		check   func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"message": "Not Found"}`,
			check: func(t *testing.T, err error) {
				var ghErr *github.ErrorResponse
				if !errors.As(err, &ghErr) {
					t.Errorf("expected *github.ErrorResponse in chain, got %v", err)
				}
			},
		},
		{
			name:    "rate limited",
			status:  http.StatusForbidden,
			headers: map[string]string{"X-RateLimit-Remaining": "0", "X-RateLimit-Limit": "60", "X-RateLimit-Reset": "1700000000"},
			body:    `{"message": "API rate limit exceeded for 127.0.0.1."}`,
			check: func(t *testing.T, err error) {
				var rateErr *github.RateLimitError
				if !errors.As(err, &rateErr) {
					t.Errorf("expected *github.RateLimitError in chain, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			out, err := Collect(NewGitHub(GitHubOptions{BaseURL: srv.URL}).Commits(context.Background(), githubQuery()))
			if out != nil {
				t.Errorf("partial results returned: %+v", out)
			}
			if !errors.Is(err, ErrUpstreamAPI) {
				t.Fatalf("expected ErrUpstreamAPI, got %v", err)
			}
			var upErr *UpstreamError
			if !errors.As(err, &upErr) {
				t.Fatalf("expected *UpstreamError, got %T", err)
			}
			if upErr.StatusCode != tt.status || upErr.Repository != "octocat/hello" {
				t.Errorf("UpstreamError = %+v", upErr)
			}
			tt.check(t, err)
		})
	}
}

func TestGitHub_Commits_Cancelled(t *testing.T) {
	f := newGitHubFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(f.backend().Commits(ctx, githubQuery()))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.listCalls.Load() != 0 {
		t.Errorf("list calls = %d after cancellation", f.listCalls.Load())
	}
}

func TestGitHub_Commits_FollowsFilePages(t *testing.T) {
	var filePages []string
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octocat/hello/commits", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"sha": "big", "commit": {"author": {"name": "A", "email": "a@x.io", "date": "2024-03-03T12:00:00Z"}, "message": "bulk"}}]`)
	})
	mux.HandleFunc("GET /repos/octocat/hello/commits/{sha}", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		filePages = append(filePages, page)
		w.Header().Set("Content-Type", "application/json")
		if page == "2" {
			fmt.Fprint(w, `{"sha": "big", "files": [{"filename": "c.go"}]}`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octocat/hello/commits/big?page=2>; rel="next"`, server.URL))
		fmt.Fprint(w, `{"sha": "big", "files": [{"filename": "a.go"}, {"filename": "b.go"}]}`)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	b := NewGitHub(GitHubOptions{BaseURL: server.URL, PerPage: 2})
	out, err := Collect(b.Commits(context.Background(), githubQuery()))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("records = %d, expected 1", len(out))
	}
	if want := []string{"a.go", "b.go", "c.go"}; !reflect.DeepEqual(out[0].FilesChanged, want) {
		t.Errorf("files = %v, expected %v", out[0].FilesChanged, want)
	}
	if want := []string{"", "2"}; !reflect.DeepEqual(filePages, want) {
		t.Errorf("file pages requested = %q, expected %q", filePages, want)
	}
}
