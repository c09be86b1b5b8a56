package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/masmgr/gitcommits-go/internal/commit"
	"github.com/masmgr/gitcommits-go/internal/git"
	"github.com/masmgr/gitcommits-go/internal/locator"
)

func TestLocal_Commits_PassesOptions(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var got git.ReadOptions
	records := []commit.Record{
		{Hash: "b", Date: since.Add(time.Hour)},
		{Hash: "a", Date: since},
	}

	l := NewLocal(LocalOptions{TempDir: "/tmp/clones", StrictBranch: true})
	l.newReader = func(opts git.ReadOptions) (git.RepositoryReader, error) {
		got = opts
		return git.NewMockHistoryReader(records, nil), nil
	}

	q := Query{
		Coordinates: locator.Coordinates{Kind: locator.KindLocal, Path: "https://example.com/repo.git"},
		Branch:      "develop",
		Filter:      commit.Filter{Since: &since},
		Credentials: Credentials{Username: "jdoe", Token: "secret"},
	}
	out, err := Collect(l.Commits(context.Background(), q))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 2 || out[0].Hash != "b" {
		t.Fatalf("records = %+v", out)
	}

	if got.Source.Location != "https://example.com/repo.git" {
		t.Errorf("Location = %q", got.Source.Location)
	}
	if got.Source.Auth == nil {
		t.Error("expected basic auth for username and token")
	}
	if got.Branch != "develop" || got.TempDir != "/tmp/clones" || !got.StrictBranch {
		t.Errorf("options = %+v", got)
	}
	if got.Filter.Since == nil || !got.Filter.Since.Equal(since) {
		t.Errorf("filter not passed through: %+v", got.Filter)
	}
}

func TestLocal_Commits_Error(t *testing.T) {
	wantErr := &git.CloneError{URL: "https://example.com/repo.git", Err: errors.New("auth required")}

	l := NewLocal(LocalOptions{})
	l.newReader = func(git.ReadOptions) (git.RepositoryReader, error) {
		return git.NewMockHistoryReader([]commit.Record{{Hash: "a", Date: time.Now()}}, wantErr), nil
	}

	out, err := Collect(l.Commits(context.Background(), Query{
		Coordinates: locator.Coordinates{Kind: locator.KindLocal, Path: "https://example.com/repo.git"},
	}))
	if !errors.Is(err, git.ErrCloneFailed) {
		t.Fatalf("expected ErrCloneFailed, got %v", err)
	}
	if out != nil {
		t.Errorf("partial results returned: %+v", out)
	}
}

func TestLocal_Commits_BranchFallbackReported(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := wt.Add("a.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sig := &object.Signature{Name: "Alice", Email: "alice@example.com", When: time.Now()}
	if _, err := wt.Commit("initial", &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var res git.BranchResolution
	out, err := Collect(NewLocal(LocalOptions{}).Commits(context.Background(), Query{
		Coordinates:      locator.Coordinates{Kind: locator.KindLocal, Path: dir},
		Branch:           "no-such-branch",
		OnBranchResolved: func(r git.BranchResolution) { res = r },
	}))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 1 || out[0].AuthorName != "Alice" {
		t.Fatalf("records = %+v", out)
	}
	if !res.FellBack || res.Requested != "no-such-branch" {
		t.Errorf("resolution = %+v", res)
	}
}

func TestCollect_EmptyIsNonNil(t *testing.T) {
	out, err := Collect(git.NewMockHistoryReader(nil, nil).Commits(context.Background()))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}

func TestUpstreamError(t *testing.T) {
	cause := errors.New("boom")
	err := &UpstreamError{
		Backend:    "bitbucket",
		Repository: "foo/bar",
		Branches:   []string{"develop", "main", ""},
		StatusCode: 404,
		Err:        cause,
	}

	if !errors.Is(err, ErrUpstreamAPI) || !errors.Is(err, cause) {
		t.Fatalf("error chain broken: %v", err)
	}
	expected := `failed to fetch commits from bitbucket repository foo/bar (branches tried: "develop", "main", "<none>"): status 404: boom`
	if err.Error() != expected {
		t.Errorf("Error() = %q\nexpected   %q", err.Error(), expected)
	}
}
