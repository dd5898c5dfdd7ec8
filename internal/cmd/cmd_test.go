package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), buf.String())
	return buf.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "postwatch version dev")
}

func TestSeedReportStatus(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "postwatch.duckdb")
	reports := filepath.Join(t.TempDir(), "reports")
	t.Setenv("POSTWATCH_REPORTS_DIR", reports)

	out := execute(t, "status", "--db", dbPath, "--log-level", "error")
	assert.Contains(t, out, "Status: UNKNOWN")

	out = execute(t, "seed", "--db", dbPath, "--hours", "24", "--seed", "3", "--log-level", "error")
	assert.Contains(t, out, "BitBard (@BitBardOfficial)")
	assert.Contains(t, out, "Lady Macbeth (@LadyMacbethAI)")

	out = execute(t, "report", "--db", dbPath, "--log-level", "error")
	assert.Contains(t, out, "SCHEDULE MONITORING REPORT")
	assert.Contains(t, out, "Full report saved to "+reports)

	entries, err := os.ReadDir(reports)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "schedule_report_"))
}

func TestIngestCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "postwatch.duckdb")
	path := filepath.Join(t.TempDir(), "feed.jsonl")
	lines := `{"id":"1","actor":"BitBardOfficial","content":"cue","timestamp":"2026-03-10T14:00:00Z","kind":"original"}
{"id":"2","actor":"BitBardOfficial","content":"broken","kind":"original"}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	out := execute(t, "ingest", path, "--db", dbPath, "--log-level", "error")
	assert.Contains(t, out, "imported 1, skipped 1")
}
