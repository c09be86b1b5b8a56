package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/masmgr/gitcommits-go/internal/service"
)

const (
	reportDateLayout     = "2006-01-02"
	reportDateTimeLayout = "2006-01-02T15:04:05Z07:00"

	summaryFileLimit = 10
)

func limitTop[T any](items []T, top int) []T {
	if top <= 0 || top >= len(items) {
		return items
	}
	return items[:top]
}

// dateRangeLabelAndValue describes the requested date window.
func dateRangeLabelAndValue(f service.Filters) (string, string) {
	switch {
	case f.StartDate != nil && f.EndDate != nil:
		return "Period", f.StartDate.Format(reportDateLayout) + " to " + f.EndDate.Format(reportDateLayout)
	case f.StartDate != nil:
		return "Since", f.StartDate.Format(reportDateLayout)
	case f.EndDate != nil:
		return "Until", f.EndDate.Format(reportDateLayout)
	default:
		return "Period", "all history"
	}
}

// formatRatio renders a 0..1 share as a whole percentage.
func formatRatio(r float64) string {
	return fmt.Sprintf("%.0f%%", r*100)
}

func openOutputWriter(outputPath string) (io.Writer, *os.File, error) {
	if outputPath == "" {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

// subject returns the first line of a commit message.
func subject(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimRight(msg, "\r")
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func truncateMessage(msg string, maxLen int) string {
	if len(msg) <= maxLen {
		return msg
	}
	return msg[:maxLen-3] + "..."
}
