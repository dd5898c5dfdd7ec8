package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/strrl/postwatch/internal/aggregator"
)

const timeLayout = "2006-01-02 15:04:05 UTC"

// WriteSummary renders a human-readable report, one block per actor in
// registry order.
func WriteSummary(w io.Writer, report *aggregator.Report) error {
	var sb strings.Builder

	sb.WriteString("SCHEDULE MONITORING REPORT\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n", report.GeneratedAt.UTC().Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Analysis Period: %d hours\n", report.WindowHours))
	sb.WriteString(fmt.Sprintf("Overall Compliance: %.1f%%\n", report.Summary.AverageCompliance))
	sb.WriteString(fmt.Sprintf("Total Posts: %d\n", report.Summary.TotalRecords))
	sb.WriteString(fmt.Sprintf("Total Issues: %d\n", report.Summary.TotalIssues))

	for _, key := range report.Keys() {
		a := report.PerActor[key]
		sb.WriteString(fmt.Sprintf("\n%s (@%s)\n", a.DisplayName, a.Actor))
		sb.WriteString(fmt.Sprintf("   Compliance Score: %.1f%%\n", a.ComplianceScore))
		sb.WriteString(fmt.Sprintf("   Posts Found: %d\n", a.RecordsFound))
		sb.WriteString(fmt.Sprintf("   Expected: %s\n", a.ExpectedSchedule))
		if a.Degraded {
			sb.WriteString("   Status: data unavailable\n")
		}

		if len(a.Issues) == 0 {
			sb.WriteString("   No issues detected\n")
			continue
		}
		sb.WriteString("   Issues:\n")
		for _, issue := range a.Issues {
			sb.WriteString(fmt.Sprintf("      - %s\n", issue))
		}
		for _, rec := range a.Recommendations {
			sb.WriteString(fmt.Sprintf("      > %s\n", rec))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteStatus renders the latest collection status as a short block.
func WriteStatus(w io.Writer, status Status) error {
	var sb strings.Builder

	lastCheck := "never"
	if status.LastCheck != nil {
		lastCheck = status.LastCheck.UTC().Format(timeLayout)
	}
	sb.WriteString(fmt.Sprintf("Status: %s\n", strings.ToUpper(status.Status)))
	sb.WriteString(fmt.Sprintf("Last Check: %s\n", lastCheck))
	sb.WriteString(fmt.Sprintf("Posts Found (Last Check): %d\n", status.RecordsFound))
	if len(status.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range status.Errors {
			sb.WriteString(fmt.Sprintf("   - %s\n", e))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
