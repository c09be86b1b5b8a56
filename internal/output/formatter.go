package output

import (
	"github.com/masmgr/gitcommits-go/internal/service"
)

// Compile-time interface conformance checks.
var (
	_ ReportWriter = (*ConsoleWriter)(nil)
	_ ReportWriter = (*JSONWriter)(nil)
	_ ReportWriter = (*CSVWriter)(nil)
	_ ReportWriter = (*MarkdownWriter)(nil)
	_ ReportWriter = (*CIWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci"
)

// ParseFormat maps a flag value to a format. Unknown values fall back to console.
func ParseFormat(s string) OutputFormat {
	switch s {
	case "json":
		return FormatJSON
	case "csv":
		return FormatCSV
	case "markdown", "md":
		return FormatMarkdown
	case "ci", "ndjson":
		return FormatCI
	default:
		return FormatConsole
	}
}

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	Top        int
	OutputPath string
	// ShowFiles lists changed files under each commit in console and markdown output.
	ShowFiles bool
	// Summary adds per-author and most-changed-file tables.
	Summary bool
}

// ReportWriter writes a commit retrieval response.
type ReportWriter interface {
	Write(resp *service.Response, options OutputOptions) error
}

// NewReportWriter creates a report writer for the specified format.
func NewReportWriter(format OutputFormat) ReportWriter {
	switch format {
	case FormatJSON:
		return &JSONWriter{}
	case FormatCSV:
		return &CSVWriter{}
	case FormatMarkdown:
		return &MarkdownWriter{}
	case FormatCI:
		return &CIWriter{}
	default:
		return &ConsoleWriter{}
	}
}
