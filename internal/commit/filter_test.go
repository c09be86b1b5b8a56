package commit

import (
	"reflect"
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestFilter_Matches(t *testing.T) {
	when := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rec := Record{
		Hash:        "abc123",
		AuthorName:  "Alice",
		AuthorEmail: "Alice@Example.com",
		Date:        when,
	}

	tests := []struct {
		name     string
		filter   Filter
		expected bool
	}{
		{name: "Empty filter", filter: Filter{}, expected: true},
		{name: "Username exact", filter: Filter{Username: "Alice"}, expected: true},
		{name: "Username case-insensitive", filter: Filter{Username: "alice"}, expected: true},
		{name: "Username mismatch", filter: Filter{Username: "bob"}, expected: false},
		{name: "Username is not a substring match", filter: Filter{Username: "Ali"}, expected: false},
		{name: "Email case-insensitive", filter: Filter{Email: "alice@example.COM"}, expected: true},
		{name: "Email mismatch", filter: Filter{Email: "bob@example.com"}, expected: false},
		{name: "Since equal is inclusive", filter: Filter{Since: timePtr(when)}, expected: true},
		{name: "Since after commit", filter: Filter{Since: timePtr(when.Add(time.Second))}, expected: false},
		{name: "Until equal is inclusive", filter: Filter{Until: timePtr(when)}, expected: true},
		{name: "Until before commit", filter: Filter{Until: timePtr(when.Add(-time.Second))}, expected: false},
		{name: "Both bounds equal", filter: Filter{Since: timePtr(when), Until: timePtr(when)}, expected: true},
		{
			name:     "Bounds in another zone",
			filter:   Filter{Since: timePtr(when.In(time.FixedZone("JST", 9*3600)))},
			expected: true,
		},
		{
			name:     "Conjunction with one failing field",
			filter:   Filter{Username: "alice", Email: "other@example.com"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(rec); got != tt.expected {
				t.Errorf("Matches() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestFilter_IsZero(t *testing.T) {
	if !(Filter{}).IsZero() {
		t.Error("empty filter should be zero")
	}
	if (Filter{Email: "a@b.c"}).IsZero() {
		t.Error("filter with email should not be zero")
	}
}

func TestPathFilter_Apply(t *testing.T) {
	paths := []string{"cmd/main.go", "internal/git/reader.go", "docs/README.md", "vendor/x/y.go"}

	tests := []struct {
		name     string
		filter   PathFilter
		expected []string
	}{
		{name: "No patterns", filter: PathFilter{}, expected: paths},
		{
			name:     "Include go files",
			filter:   PathFilter{Include: []string{"**/*.go"}},
			expected: []string{"cmd/main.go", "internal/git/reader.go", "vendor/x/y.go"},
		},
		{
			name:     "Exclude wins over include",
			filter:   PathFilter{Include: []string{"**/*.go"}, Exclude: []string{"vendor/**"}},
			expected: []string{"cmd/main.go", "internal/git/reader.go"},
		},
		{
			name:     "Exclude only",
			filter:   PathFilter{Exclude: []string{"**/*.md"}},
			expected: []string{"cmd/main.go", "internal/git/reader.go", "vendor/x/y.go"},
		},
		{
			name:     "Nothing matches",
			filter:   PathFilter{Include: []string{"*.rs"}},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(paths)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Apply() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestPathFilter_Validate(t *testing.T) {
	if err := (PathFilter{Include: []string{"**/*.go"}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := (PathFilter{Exclude: []string{"["}}).Validate()
	if err == nil {
		t.Fatal("expected error for invalid exclude glob, got nil")
	}
	if _, ok := err.(*PatternError); !ok {
		t.Fatalf("expected *PatternError, got %T", err)
	}
}
