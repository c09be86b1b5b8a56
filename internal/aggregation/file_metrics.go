// Package aggregation summarizes a retrieved commit history per file and
// per author.
package aggregation

import (
	"sort"
	"strings"
	"time"

	"github.com/masmgr/gitcommits-go/internal/commit"
)

// FileMetrics holds aggregated metrics for a single file.
type FileMetrics struct {
	Path                    string
	CommitCount             int
	LastModifiedAt          time.Time
	Contributors            map[string]struct{}
	ContributorCommitCounts map[string]int
}

// NewFileMetrics creates a new FileMetrics instance.
func NewFileMetrics(path string) *FileMetrics {
	return &FileMetrics{
		Path:                    path,
		Contributors:            make(map[string]struct{}),
		ContributorCommitCounts: make(map[string]int),
	}
}

// ContributorCount returns number of unique contributors.
func (f *FileMetrics) ContributorCount() int {
	return len(f.Contributors)
}

// OwnershipRatio returns proportion of commits by top contributor.
// A high ratio means concentrated ownership (one person owns the file).
// A low ratio means dispersed ownership (many people contribute).
func (f *FileMetrics) OwnershipRatio() float64 {
	if f.CommitCount == 0 || len(f.ContributorCommitCounts) == 0 {
		return 1.0
	}

	maxCommits := 0
	for _, count := range f.ContributorCommitCounts {
		if count > maxCommits {
			maxCommits = count
		}
	}

	return float64(maxCommits) / float64(f.CommitCount)
}

// AddCommit adds a commit's contribution to this file's metrics.
func (f *FileMetrics) AddCommit(rec commit.Record) {
	f.CommitCount++

	if f.LastModifiedAt.IsZero() || rec.Date.After(f.LastModifiedAt) {
		f.LastModifiedAt = rec.Date
	}

	key := contributorKey(rec)
	f.Contributors[key] = struct{}{}
	f.ContributorCommitCounts[key]++
}

// contributorKey identifies an author across backends; emails differ only in case.
func contributorKey(rec commit.Record) string {
	return strings.ToLower(rec.AuthorEmail)
}

// FileMetricsAggregator aggregates changed files from commits.
type FileMetricsAggregator struct {
	metrics map[string]*FileMetrics
}

// NewFileMetricsAggregator creates a new aggregator.
func NewFileMetricsAggregator() *FileMetricsAggregator {
	return &FileMetricsAggregator{
		metrics: make(map[string]*FileMetrics),
	}
}

// Process aggregates all records and returns the metrics keyed by path.
func (a *FileMetricsAggregator) Process(records []commit.Record) map[string]*FileMetrics {
	for _, rec := range records {
		a.processRecord(rec)
	}
	return a.metrics
}

func (a *FileMetricsAggregator) processRecord(rec commit.Record) {
	for _, path := range rec.FilesChanged {
		if _, exists := a.metrics[path]; !exists {
			a.metrics[path] = NewFileMetrics(path)
		}
		a.metrics[path].AddCommit(rec)
	}
}

// GetMetrics returns the aggregated metrics.
func (a *FileMetricsAggregator) GetMetrics() map[string]*FileMetrics {
	return a.metrics
}

// RankFiles orders metrics by commit count, then path.
func RankFiles(metrics map[string]*FileMetrics) []*FileMetrics {
	ranked := make([]*FileMetrics, 0, len(metrics))
	for _, m := range metrics {
		ranked = append(ranked, m)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].CommitCount != ranked[j].CommitCount {
			return ranked[i].CommitCount > ranked[j].CommitCount
		}
		return ranked[i].Path < ranked[j].Path
	})
	return ranked
}
