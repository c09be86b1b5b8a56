package git

import (
	"github.com/go-git/go-git/v5/plumbing/object"
)

// changedFiles lists the paths touched by c relative to its first parent.
// A root commit, or any failure while diffing, yields an empty list.
func changedFiles(c *object.Commit) []string {
	if c.NumParents() == 0 {
		return []string{}
	}

	files, err := diffFirstParent(c)
	if err != nil {
		return []string{}
	}
	return files
}

func diffFirstParent(c *object.Commit) ([]string, error) {
	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, err
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(changes))
	for _, change := range changes {
		if change.From.Name != "" {
			files = append(files, change.From.Name)
		} else {
			files = append(files, change.To.Name)
		}
	}
	return files, nil
}
