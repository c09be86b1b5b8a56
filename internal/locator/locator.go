// Package locator turns a user-supplied repository path or URL into the
// coordinates a backend needs.
package locator

import (
	"errors"
	"fmt"
	"strings"
)

// Kind selects the backend a repository is addressed through.
type Kind string

const (
	KindLocal     Kind = "local"
	KindGitHub    Kind = "github"
	KindBitbucket Kind = "bitbucket"
)

// ParseKind parses a repository type name. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindLocal:
		return KindLocal, nil
	case KindGitHub:
		return KindGitHub, nil
	case KindBitbucket:
		return KindBitbucket, nil
	default:
		return "", fmt.Errorf("unsupported repository type %q (expected local, github or bitbucket)", s)
	}
}

// Host returns the canonical host of a hosted kind, or "" for local.
func (k Kind) Host() string {
	switch k {
	case KindGitHub:
		return "github.com"
	case KindBitbucket:
		return "bitbucket.org"
	default:
		return ""
	}
}

// ErrInvalidRepositoryPath is returned when a raw path cannot be decomposed
// into the parts a backend requires.
var ErrInvalidRepositoryPath = errors.New("invalid repository path")

// PathError carries the rejected input and the expected format.
type PathError struct {
	Input    string
	Kind     Kind
	Expected string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid %s repository path %q: expected %s", e.Kind, e.Input, e.Expected)
}

func (e *PathError) Unwrap() error {
	return ErrInvalidRepositoryPath
}

// Coordinates is the resolved addressing for one request.
type Coordinates struct {
	Kind Kind
	Raw  string

	// Path is the filesystem path or clone URL (local only).
	Path string

	// Owner is the GitHub owner or Bitbucket workspace.
	Owner string
	// Name is the GitHub repository or Bitbucket repo slug.
	Name string
	// Username is a user embedded in the URL (user@host), if any.
	Username string
}

// Slug returns "owner/name" for hosted coordinates and Path for local ones.
func (c Coordinates) Slug() string {
	if c.Kind == KindLocal {
		return c.Path
	}
	return c.Owner + "/" + c.Name
}

const clonePrefix = "git clone "

// Resolve parses raw into coordinates for the given backend kind.
func Resolve(raw string, kind Kind) (Coordinates, error) {
	input := strings.TrimSpace(raw)
	if strings.HasPrefix(input, clonePrefix) {
		input = strings.TrimSpace(strings.TrimPrefix(input, clonePrefix))
	}

	switch kind {
	case KindLocal:
		if input == "" {
			return Coordinates{}, &PathError{Input: raw, Kind: kind, Expected: "a filesystem path or clone URL"}
		}
		return Coordinates{Kind: kind, Raw: raw, Path: input}, nil
	case KindGitHub, KindBitbucket:
		return resolveHosted(raw, input, kind)
	default:
		return Coordinates{}, &PathError{Input: raw, Kind: kind, Expected: "a known repository type"}
	}
}

func resolveHosted(raw, input string, kind Kind) (Coordinates, error) {
	expected := "'owner/repo' or a valid " + kind.Host() + " URL"
	if kind == KindBitbucket {
		expected = "'workspace/repo' or a valid " + kind.Host() + " URL"
	}
	invalid := &PathError{Input: raw, Kind: kind, Expected: expected}

	host := kind.Host()
	username := ""
	rest := input

	if idx := strings.Index(input, host+"/"); idx != -1 {
		username = embeddedUser(input[:idx])
		rest = input[idx+len(host)+1:]
	} else if idx := strings.Index(input, host+":"); idx != -1 {
		// scp-like form: git@github.com:owner/repo.git
		username = embeddedUser(input[:idx])
		rest = input[idx+len(host)+1:]
	} else if at := strings.LastIndex(input, "@"); at != -1 {
		rest = input[at+1:]
	}

	if i := strings.IndexAny(rest, "?#"); i != -1 {
		rest = rest[:i]
	}
	rest = strings.TrimSuffix(rest, "/")
	rest = strings.TrimSuffix(rest, ".git")

	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return Coordinates{}, invalid
	}
	owner := strings.TrimSpace(parts[0])
	name := strings.TrimSpace(parts[1])
	if owner == "" || name == "" {
		return Coordinates{}, invalid
	}

	return Coordinates{
		Kind:     kind,
		Raw:      raw,
		Owner:    owner,
		Name:     name,
		Username: username,
	}, nil
}

// embeddedUser extracts "user" from a prefix such as "https://user:pass@".
func embeddedUser(prefix string) string {
	at := strings.LastIndex(prefix, "@")
	if at == -1 {
		return ""
	}
	userinfo := prefix[:at]
	if i := strings.Index(userinfo, "://"); i != -1 {
		userinfo = userinfo[i+3:]
	}
	if i := strings.Index(userinfo, ":"); i != -1 {
		userinfo = userinfo[:i]
	}
	if userinfo == "git" {
		// ssh transport user, not an account
		return ""
	}
	return userinfo
}
