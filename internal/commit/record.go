package commit

import (
	"errors"
	"time"
)

// Identity sentinels used when a backend cannot resolve the author.
const (
	UnknownAuthorName  = "Unknown"
	UnknownAuthorEmail = "unknown@email.com"
)

// Record is the normalized, backend-agnostic representation of one commit.
type Record struct {
	Hash         string    `json:"commit_hash"`
	AuthorName   string    `json:"author_name"`
	AuthorEmail  string    `json:"author_email"`
	Date         time.Time `json:"date"`
	Message      string    `json:"message"`
	FilesChanged []string  `json:"files_changed"`
}

// Normalize applies identity sentinels, converts the timestamp to UTC and
// guarantees a non-nil file list. The message is left untouched.
func (r Record) Normalize() Record {
	if r.AuthorName == "" {
		r.AuthorName = UnknownAuthorName
	}
	if r.AuthorEmail == "" {
		r.AuthorEmail = UnknownAuthorEmail
	}
	if !r.Date.IsZero() {
		r.Date = r.Date.UTC()
	}
	if r.FilesChanged == nil {
		r.FilesChanged = []string{}
	}
	return r
}

// Validate reports whether the record can be returned to a caller.
func (r Record) Validate() error {
	if r.Hash == "" {
		return errors.New("commit record: empty hash")
	}
	if r.Date.IsZero() {
		return errors.New("commit record " + r.Hash + ": missing date")
	}
	return nil
}
