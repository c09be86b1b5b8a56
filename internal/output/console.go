package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/masmgr/gitcommits-go/internal/aggregation"
	"github.com/masmgr/gitcommits-go/internal/service"
)

// ConsoleWriter writes a response as a colored table.
type ConsoleWriter struct{}

// Write outputs the response to the console.
func (w *ConsoleWriter) Write(resp *service.Response, options OutputOptions) error {
	commits := limitTop(resp.Commits, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	color.New(color.FgGreen).Fprintln(out, "Commit History")
	fmt.Fprintf(out, "Repository: %s (%s)\n", resp.Repository, resp.RepoType)
	fmt.Fprintf(out, "Branch: %s\n", resp.Branch)
	label, value := dateRangeLabelAndValue(resp.Filters)
	fmt.Fprintf(out, "%s: %s\n", label, value)
	if author := authorFilterLabel(resp.Filters); author != "" {
		fmt.Fprintf(out, "Author: %s\n", author)
	}
	fmt.Fprintf(out, "Total commits: %d\n", resp.CommitsCount)
	if !resp.GeneratedAt.IsZero() {
		fmt.Fprintf(out, "Generated: %s\n", resp.GeneratedAt.UTC().Format(reportDateTimeLayout))
	}
	for _, warning := range resp.Warnings {
		color.New(color.FgYellow).Fprintf(out, "Warning: %s\n", warning)
	}
	fmt.Fprintln(out)

	if len(commits) == 0 {
		fmt.Fprintln(out, "No commits found in the specified range.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSHA\tDate\tAuthor\tFiles\tMessage")
	for i, c := range commits {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			i+1,
			color.CyanString(shortHash(c.Hash)),
			c.Date.Format(reportDateTimeLayout),
			c.AuthorName,
			len(c.FilesChanged),
			truncateMessage(subject(c.Message), 60),
		)
		if options.ShowFiles {
			for _, f := range c.FilesChanged {
				fmt.Fprintf(tw, "\t\t\t\t\t  %s\n", f)
			}
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if options.Summary {
		return writeConsoleSummary(out, aggregation.Summarize(resp.Commits))
	}
	return nil
}

func writeConsoleSummary(out io.Writer, stats aggregation.Summary) error {
	fmt.Fprintln(out)
	color.New(color.FgGreen).Fprintln(out, "Authors")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Author\tEmail\tCommits\tFiles\tLast commit")
	for _, a := range stats.Authors {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			a.Name, a.Email, a.CommitCount, a.FileCount(), a.LastCommit.Format(reportDateLayout))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	files := limitTop(stats.Files, summaryFileLimit)
	if len(files) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	color.New(color.FgGreen).Fprintln(out, "Most changed files")
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Commits\tAuthors\tOwnership\tPath")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", f.CommitCount, f.ContributorCount(), formatRatio(f.OwnershipRatio()), f.Path)
	}
	return tw.Flush()
}

func authorFilterLabel(f service.Filters) string {
	switch {
	case f.Username != nil && f.Email != nil:
		return fmt.Sprintf("%s <%s>", *f.Username, *f.Email)
	case f.Username != nil:
		return *f.Username
	case f.Email != nil:
		return "<" + *f.Email + ">"
	}
	return ""
}
