package git

import (
	"errors"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

const shortHashLen = 7

// ResolveBranch maps a branch name onto a commit. A local branch wins over a
// remote-tracking one ("origin" first); when neither exists the repository's
// HEAD is used and FellBack is set.
func ResolveBranch(repo *git.Repository, branch string) (BranchResolution, error) {
	branch = strings.TrimSpace(branch)
	res := BranchResolution{Requested: branch}

	if branch != "" && !strings.EqualFold(branch, "HEAD") {
		if hash, ok := lookupBranch(repo, branch); ok {
			res.Resolved = branch
			res.Hash = hash
			return res, nil
		}
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return res, errEmptyRepository
		}
		return res, err
	}

	res.Hash = head.Hash()
	if head.Name().IsBranch() {
		res.Resolved = head.Name().Short()
	} else {
		// Detached: name the commit itself.
		res.Resolved = head.Hash().String()[:shortHashLen]
	}
	res.FellBack = branch != "" && !strings.EqualFold(branch, "HEAD") && res.Resolved != branch
	return res, nil
}

func lookupBranch(repo *git.Repository, branch string) (plumbing.Hash, bool) {
	candidates := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(branch),
		plumbing.NewRemoteReferenceName("origin", branch),
	}
	for _, name := range candidates {
		if ref, err := repo.Reference(name, true); err == nil {
			return ref.Hash(), true
		}
	}

	refs, err := repo.References()
	if err != nil {
		return plumbing.ZeroHash, false
	}
	defer refs.Close()

	var found plumbing.Hash
	_ = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference || !ref.Name().IsRemote() {
			return nil
		}
		short := ref.Name().Short()
		if i := strings.Index(short, "/"); i != -1 && short[i+1:] == branch {
			found = ref.Hash()
			return storer.ErrStop
		}
		return nil
	})
	return found, !found.IsZero()
}
