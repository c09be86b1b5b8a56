package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// testRepo is a throwaway working copy built with go-git.
type testRepo struct {
	t    testing.TB
	dir  string
	repo *gogit.Repository
	wt   *gogit.Worktree
}

func newTestRepo(t testing.TB) *testRepo {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt}
}

func (r *testRepo) write(rel, content string) {
	r.t.Helper()
	full := filepath.Join(r.dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		r.t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		r.t.Fatalf("WriteFile: %v", err)
	}
	if _, err := r.wt.Add(rel); err != nil {
		r.t.Fatalf("Add: %v", err)
	}
}

func (r *testRepo) commit(msg, author string, when time.Time) string {
	r.t.Helper()
	sig := &object.Signature{Name: author, Email: author + "@example.com", When: when}
	hash, err := r.wt.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		r.t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

func (r *testRepo) checkout(branch string, create bool) {
	r.t.Helper()
	if err := r.wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
	}); err != nil {
		r.t.Fatalf("Checkout(%s): %v", branch, err)
	}
}

func (r *testRepo) headBranch() string {
	r.t.Helper()
	head, err := r.repo.Head()
	if err != nil {
		r.t.Fatalf("Head: %v", err)
	}
	return head.Name().Short()
}

// requireGit skips tests that clone through the file transport, which shells
// out to git-upload-pack.
func requireGit(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping clone test in short mode")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected %s to be empty, found %v", dir, names)
	}
}
