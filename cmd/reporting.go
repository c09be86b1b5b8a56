package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitcommits-go/internal/output"
	"github.com/masmgr/gitcommits-go/internal/service"
)

func writeCommitReport(c *cli.Context, resp *service.Response) error {
	opts := OutputOptions(c)
	writer := output.NewReportWriter(opts.Format)
	return writer.Write(resp, opts)
}

// printWarnings reports branch fallbacks on stderr so piped output stays clean.
func printWarnings(w io.Writer, warnings []string) {
	warn := color.New(color.FgYellow)
	for _, msg := range warnings {
		warn.Fprintf(w, "Warning: %s\n", msg)
	}
}

func printStatus(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintln(w, fmt.Sprintf(format, args...))
}
