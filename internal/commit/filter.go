package commit

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter holds the caller-supplied predicate parameters. All set fields are
// combined with AND; an unset field imposes no constraint.
type Filter struct {
	Username string
	Email    string
	Since    *time.Time // inclusive
	Until    *time.Time // inclusive
}

// IsZero returns true when no field is set.
func (f Filter) IsZero() bool {
	return f.Username == "" && f.Email == "" && f.Since == nil && f.Until == nil
}

// Matches reports whether the record passes every set filter.
// The record is expected to be normalized already.
func (f Filter) Matches(r Record) bool {
	if f.Username != "" && !strings.EqualFold(f.Username, r.AuthorName) {
		return false
	}
	if f.Email != "" && !strings.EqualFold(f.Email, r.AuthorEmail) {
		return false
	}
	if f.Since != nil && r.Date.Before(*f.Since) {
		return false
	}
	if f.Until != nil && r.Date.After(*f.Until) {
		return false
	}
	return true
}

// PathFilter prunes FilesChanged with doublestar globs. It never removes a
// commit, only paths inside one.
type PathFilter struct {
	Include []string // Glob patterns to include
	Exclude []string // Glob patterns to exclude
}

// Validate checks that every pattern is a well-formed glob.
func (p PathFilter) Validate() error {
	for _, pattern := range append(append([]string{}, p.Include...), p.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return &PatternError{Pattern: pattern}
		}
	}
	return nil
}

// IsZero returns true when the filter accepts every path.
func (p PathFilter) IsZero() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0
}

// Apply returns the subset of paths accepted by the filter, preserving order.
func (p PathFilter) Apply(paths []string) []string {
	if p.IsZero() {
		return paths
	}
	kept := make([]string, 0, len(paths))
	for _, path := range paths {
		if p.matches(path) {
			kept = append(kept, path)
		}
	}
	return kept
}

// matches checks if a path matches the include/exclude filters.
func (p PathFilter) matches(path string) bool {
	// Normalize path separators
	path = strings.ReplaceAll(path, "\\", "/")

	// Check exclude patterns first
	for _, pattern := range p.Exclude {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return false
		}
	}

	if len(p.Include) == 0 {
		return true
	}

	for _, pattern := range p.Include {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}

	return false
}

// PatternError reports a malformed glob pattern.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern %q", e.Pattern)
}
