package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/masmgr/gitcommits-go/internal/aggregation"
	"github.com/masmgr/gitcommits-go/internal/service"
)

// MarkdownWriter writes a response as a Markdown report.
type MarkdownWriter struct{}

// Write outputs the response as Markdown.
func (w *MarkdownWriter) Write(resp *service.Response, options OutputOptions) error {
	commits := limitTop(resp.Commits, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, "# Commit History")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Repository:** %s (%s)\n\n", escapeMarkdown(resp.Repository), resp.RepoType)
	fmt.Fprintf(out, "**Branch:** %s\n\n", escapeMarkdown(resp.Branch))
	label, value := dateRangeLabelAndValue(resp.Filters)
	fmt.Fprintf(out, "**%s:** %s\n\n", label, value)
	if author := authorFilterLabel(resp.Filters); author != "" {
		fmt.Fprintf(out, "**Author:** %s\n\n", escapeMarkdown(author))
	}
	fmt.Fprintf(out, "**Total Commits:** %d\n\n", resp.CommitsCount)
	if !resp.GeneratedAt.IsZero() {
		fmt.Fprintf(out, "**Generated:** %s\n\n", resp.GeneratedAt.UTC().Format(reportDateTimeLayout))
	}

	if len(resp.Warnings) > 0 {
		for _, warning := range resp.Warnings {
			fmt.Fprintf(out, "> **Warning:** %s\n", escapeMarkdown(warning))
		}
		fmt.Fprintln(out)
	}

	if len(commits) == 0 {
		fmt.Fprintln(out, "_No commits found._")
		return nil
	}

	fmt.Fprintln(out, "| # | Commit | Date | Author | Files | Message |")
	fmt.Fprintln(out, "|---|--------|------|--------|-------|---------|")
	for i, c := range commits {
		fmt.Fprintf(out, "| %d | `%s` | %s | %s | %d | %s |\n",
			i+1,
			shortHash(c.Hash),
			c.Date.Format(reportDateTimeLayout),
			escapeMarkdown(c.AuthorName),
			len(c.FilesChanged),
			escapeMarkdown(truncateMessage(subject(c.Message), 72)),
		)
	}

	if options.Summary {
		writeMarkdownSummary(out, aggregation.Summarize(resp.Commits))
	}

	if options.ShowFiles {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "## Changed Files")
		for _, c := range commits {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "### `%s`\n\n", shortHash(c.Hash))
			if len(c.FilesChanged) == 0 {
				fmt.Fprintln(out, "_none_")
				continue
			}
			for _, f := range c.FilesChanged {
				fmt.Fprintf(out, "- `%s`\n", f)
			}
		}
	}

	return nil
}

func writeMarkdownSummary(out io.Writer, stats aggregation.Summary) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "## Authors")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "| Author | Email | Commits | Files | Last Commit |")
	fmt.Fprintln(out, "|--------|-------|---------|-------|-------------|")
	for _, a := range stats.Authors {
		fmt.Fprintf(out, "| %s | %s | %d | %d | %s |\n",
			escapeMarkdown(a.Name), escapeMarkdown(a.Email), a.CommitCount, a.FileCount(),
			a.LastCommit.Format(reportDateLayout))
	}

	files := limitTop(stats.Files, summaryFileLimit)
	if len(files) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "## Most Changed Files")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "| Commits | Authors | Ownership | Path |")
	fmt.Fprintln(out, "|---------|---------|-----------|------|")
	for _, f := range files {
		fmt.Fprintf(out, "| %d | %d | %s | `%s` |\n", f.CommitCount, f.ContributorCount(), formatRatio(f.OwnershipRatio()), f.Path)
	}
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
