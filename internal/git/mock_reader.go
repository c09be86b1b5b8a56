package git

import (
	"context"
	"iter"

	"github.com/masmgr/gitcommits-go/internal/commit"
)

// MockHistoryReader is a test double for HistoryReader.
// It allows tests to provide predefined commit data without needing a real Git repository.
type MockHistoryReader struct {
	Records []commit.Record
	Error   error

	// Released is set once iteration has finished.
	Released bool
}

// NewMockHistoryReader creates a new MockHistoryReader with the given data.
func NewMockHistoryReader(records []commit.Record, err error) *MockHistoryReader {
	return &MockHistoryReader{
		Records: records,
		Error:   err,
	}
}

// Commits yields the predefined records, then the error if one is set.
func (m *MockHistoryReader) Commits(_ context.Context) iter.Seq2[commit.Record, error] {
	return func(yield func(commit.Record, error) bool) {
		defer func() { m.Released = true }()
		for _, rec := range m.Records {
			if !yield(rec, nil) {
				return
			}
		}
		if m.Error != nil {
			yield(commit.Record{}, m.Error)
		}
	}
}

// Compile-time interface conformance check.
var _ RepositoryReader = (*MockHistoryReader)(nil)
