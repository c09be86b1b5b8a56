package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/masmgr/gitcommits-go/internal/service"
)

// JSONWriter writes a response in the same shape the HTTP endpoint returns.
type JSONWriter struct{}

// Write outputs the response as indented JSON. Top limits the commits list;
// commits_count still reports every match.
func (w *JSONWriter) Write(resp *service.Response, options OutputOptions) error {
	report := *resp
	report.Commits = limitTop(resp.Commits, options.Top)
	return writeJSON(report, options.OutputPath)
}

func writeJSON(data interface{}, outputPath string) error {
	encoder := json.NewEncoder(os.Stdout)
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		encoder = json.NewEncoder(file)
	}

	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
