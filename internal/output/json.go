package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/strrl/postwatch/internal/aggregator"
)

// ReportFilename names a persisted report after the time it was saved.
func ReportFilename(now time.Time) string {
	return fmt.Sprintf("schedule_report_%s.json", now.UTC().Format("20060102_150405"))
}

// SaveJSON writes the report as indented JSON under dir and returns the path.
func SaveJSON(dir string, report *aggregator.Report, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	filename := filepath.Join(dir, ReportFilename(now))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return filename, nil
}

// LoadJSON reads a report previously written by SaveJSON.
func LoadJSON(path string) (*aggregator.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var report aggregator.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &report, nil
}
