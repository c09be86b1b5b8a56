package git

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrCloneFailed is returned when a working copy cannot be obtained.
var ErrCloneFailed = errors.New("clone failed")

// ErrBranchNotFound is returned for a missing branch when fallback is disabled.
var ErrBranchNotFound = errors.New("branch not found")

// errEmptyRepository marks a repository without any commit reachable from HEAD.
var errEmptyRepository = errors.New("repository has no commits")

// CloneError wraps the transport error of a failed clone.
// It matches both ErrCloneFailed and the underlying error with errors.Is.
type CloneError struct {
	URL string
	Err error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("failed to clone repository %s: %v", e.URL, e.Err)
}

func (e *CloneError) Unwrap() []error {
	return []error{ErrCloneFailed, e.Err}
}

// redactURL drops any password embedded in a clone URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
