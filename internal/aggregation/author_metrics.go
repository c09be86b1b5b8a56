package aggregation

import (
	"sort"
	"strings"
	"time"

	"github.com/masmgr/gitcommits-go/internal/commit"
)

// AuthorMetrics holds activity for one author over the retrieved history.
type AuthorMetrics struct {
	Name        string
	Email       string
	CommitCount int
	FirstCommit time.Time
	LastCommit  time.Time
	// Files is every distinct path the author touched.
	Files map[string]struct{}
	// Subsystems are top-level directories; root-level files count as "".
	Subsystems map[string]struct{}
}

// FileCount returns the number of distinct files touched.
func (m *AuthorMetrics) FileCount() int {
	return len(m.Files)
}

// Summary is the per-author and per-file view of one response.
type Summary struct {
	CommitCount int
	Authors     []*AuthorMetrics
	Files       []*FileMetrics
	Oldest      time.Time
	Newest      time.Time
}

// Summarize aggregates records. Authors are ordered by commit count, then
// name; files by commit count, then path.
func Summarize(records []commit.Record) Summary {
	authors := make(map[string]*AuthorMetrics)
	files := NewFileMetricsAggregator()

	s := Summary{CommitCount: len(records)}
	for _, rec := range records {
		key := contributorKey(rec)
		m, ok := authors[key]
		if !ok {
			m = &AuthorMetrics{
				Name:       rec.AuthorName,
				Email:      rec.AuthorEmail,
				Files:      make(map[string]struct{}),
				Subsystems: make(map[string]struct{}),
			}
			authors[key] = m
		}
		m.CommitCount++
		if m.FirstCommit.IsZero() || rec.Date.Before(m.FirstCommit) {
			m.FirstCommit = rec.Date
		}
		if rec.Date.After(m.LastCommit) {
			m.LastCommit = rec.Date
			m.Name = rec.AuthorName
		}
		for _, path := range rec.FilesChanged {
			m.Files[path] = struct{}{}
			m.Subsystems[strings.ToLower(subsystemOf(path))] = struct{}{}
		}

		if s.Oldest.IsZero() || rec.Date.Before(s.Oldest) {
			s.Oldest = rec.Date
		}
		if rec.Date.After(s.Newest) {
			s.Newest = rec.Date
		}
	}
	files.Process(records)

	s.Authors = make([]*AuthorMetrics, 0, len(authors))
	for _, m := range authors {
		s.Authors = append(s.Authors, m)
	}
	sort.Slice(s.Authors, func(i, j int) bool {
		if s.Authors[i].CommitCount != s.Authors[j].CommitCount {
			return s.Authors[i].CommitCount > s.Authors[j].CommitCount
		}
		return s.Authors[i].Name < s.Authors[j].Name
	})
	s.Files = RankFiles(files.GetMetrics())
	return s
}

// subsystemOf returns the first directory component of a path (e.g. "src").
func subsystemOf(path string) string {
	normalized := strings.ReplaceAll(path, "\\", "/")
	if i := strings.Index(normalized, "/"); i > 0 {
		return normalized[:i]
	}
	return ""
}
