package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/masmgr/gitcommits-go/internal/aggregation"
	"github.com/masmgr/gitcommits-go/internal/commit"
	"github.com/masmgr/gitcommits-go/internal/service"
)

// CIWriter writes a response as NDJSON (one JSON object per line) for CI pipelines.
type CIWriter struct{}

// CISummary is the first line of CI output, containing aggregate statistics.
type CISummary struct {
	Type         string     `json:"type"`
	Repository   string     `json:"repository"`
	Branch       string     `json:"branch"`
	CommitsCount int        `json:"commitsCount"`
	AuthorsCount int        `json:"authorsCount"`
	FilesCount   int        `json:"filesCount"`
	Authors      []CIAuthor `json:"authors"`
	TopFiles     []CIFile   `json:"topFiles"`
	Warnings     []string   `json:"warnings,omitempty"`
	GeneratedAt  string     `json:"generatedAt,omitempty"`
}

// CIFile is one of the most changed files.
type CIFile struct {
	Path           string  `json:"path"`
	CommitCount    int     `json:"commitCount"`
	Contributors   int     `json:"contributors"`
	OwnershipRatio float64 `json:"ownershipRatio"`
}

// CIAuthor is one author's share of the history.
type CIAuthor struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CommitCount int    `json:"commitCount"`
}

// CICommitEntry represents a single commit in CI output.
type CICommitEntry struct {
	Type string `json:"type"`
	commit.Record
}

// Write outputs the response as NDJSON.
func (w *CIWriter) Write(resp *service.Response, options OutputOptions) error {
	commits := limitTop(resp.Commits, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	stats := aggregation.Summarize(resp.Commits)
	summary := CISummary{
		Type:         "summary",
		Repository:   resp.Repository,
		Branch:       resp.Branch,
		CommitsCount: resp.CommitsCount,
		AuthorsCount: len(stats.Authors),
		FilesCount:   len(stats.Files),
		Authors:      make([]CIAuthor, 0, len(stats.Authors)),
		TopFiles:     make([]CIFile, 0, summaryFileLimit),
		Warnings:     resp.Warnings,
	}
	if !resp.GeneratedAt.IsZero() {
		summary.GeneratedAt = resp.GeneratedAt.UTC().Format(time.RFC3339)
	}
	for _, a := range stats.Authors {
		summary.Authors = append(summary.Authors, CIAuthor{Name: a.Name, Email: a.Email, CommitCount: a.CommitCount})
	}
	for _, f := range limitTop(stats.Files, summaryFileLimit) {
		summary.TopFiles = append(summary.TopFiles, CIFile{
			Path:           f.Path,
			CommitCount:    f.CommitCount,
			Contributors:   f.ContributorCount(),
			OwnershipRatio: f.OwnershipRatio(),
		})
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	for _, c := range commits {
		if err := writeNDJSONLine(out, CICommitEntry{Type: "commit", Record: c}); err != nil {
			return err
		}
	}

	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
