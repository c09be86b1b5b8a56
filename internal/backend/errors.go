package backend

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUpstreamAPI is returned for any unrecoverable hosted-API failure.
var ErrUpstreamAPI = errors.New("upstream API error")

// UpstreamError identifies the repository and branches involved in a failed
// hosted-API retrieval. It matches ErrUpstreamAPI and the cause with errors.Is.
type UpstreamError struct {
	Backend    string
	Repository string
	Branches   []string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "failed to fetch commits from %s repository %s", e.Backend, e.Repository)
	if len(e.Branches) > 0 {
		quoted := make([]string, len(e.Branches))
		for i, b := range e.Branches {
			if b == "" {
				b = "<none>"
			}
			quoted[i] = fmt.Sprintf("%q", b)
		}
		fmt.Fprintf(&sb, " (branches tried: %s)", strings.Join(quoted, ", "))
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstreamAPI}
	}
	return []error{ErrUpstreamAPI, e.Err}
}

// StatusError is a non-2xx response from a REST endpoint.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: unexpected status %d: %s", e.URL, e.StatusCode, e.Body)
}
