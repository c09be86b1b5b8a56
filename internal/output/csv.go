package output

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/masmgr/gitcommits-go/internal/service"
)

// CSVWriter writes one row per commit.
type CSVWriter struct{}

// Write outputs the commits as CSV. Changed files are joined with ";".
func (w *CSVWriter) Write(resp *service.Response, options OutputOptions) error {
	commits := limitTop(resp.Commits, options.Top)

	writer, file, err := createCSVWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	headers := []string{"commit_hash", "author_name", "author_email", "date", "subject", "files_count", "files_changed"}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, c := range commits {
		row := []string{
			c.Hash,
			c.AuthorName,
			c.AuthorEmail,
			c.Date.Format(reportDateTimeLayout),
			subject(c.Message),
			strconv.Itoa(len(c.FilesChanged)),
			strings.Join(c.FilesChanged, ";"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func createCSVWriter(outputPath string) (*csv.Writer, *os.File, error) {
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return nil, nil, err
		}
		return csv.NewWriter(file), file, nil
	}
	return csv.NewWriter(os.Stdout), nil, nil
}
