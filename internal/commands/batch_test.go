package commands_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchLine struct {
	File        string `json:"file"`
	RunID       string `json:"run_id"`
	Records     int    `json:"records"`
	Matched     int    `json:"matched"`
	Discrepancy int    `json:"discrepancy"`
	Export      string `json:"export"`
	Error       string `json:"error"`
}

func copyToImport(t *testing.T, dir, src, name string) {
	t.Helper()
	data, err := os.ReadFile(testdata(t, src))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", name), data, 0o644))
}

func TestBatch_ProcessesImports(t *testing.T) {
	dir := newProject(t)
	copyToImport(t, dir, "sc_receipts.csv", "jan.csv")
	copyToImport(t, dir, "sc_receipts.csv", "feb.csv")
	copyToImport(t, dir, "validation.csv", "validation.csv")

	stdout, stderr, err := runReconStdout(t, "--dir", dir, "batch", "sc",
		filepath.Join(dir, "import", "validation.csv"), "-f", "json", "--workers", "2")
	require.NoError(t, err, stderr)

	var lines []batchLine
	require.NoError(t, json.Unmarshal([]byte(stdout), &lines), stdout)
	require.Len(t, lines, 2, "the reference upload is not reconciled against itself")
	assert.Equal(t, "feb.csv", lines[0].File)
	assert.Equal(t, "jan.csv", lines[1].File)
	for _, l := range lines {
		assert.Empty(t, l.Error)
		assert.Equal(t, 5, l.Records)
		assert.Equal(t, 2, l.Matched)
		assert.FileExists(t, l.Export)
	}
	assert.NotEqual(t, lines[0].RunID, lines[1].RunID)

	// Successful uploads move to processed; the reference stays.
	for _, name := range []string{"jan.csv", "feb.csv"} {
		assert.FileExists(t, filepath.Join(dir, "import", "processed", name))
		assert.NoFileExists(t, filepath.Join(dir, "import", name))
	}
	assert.FileExists(t, filepath.Join(dir, "import", "validation.csv"))
}

func TestBatch_ReportsFailures(t *testing.T) {
	dir := newProject(t)
	copyToImport(t, dir, "sc_receipts.csv", "good.csv")
	copyToImport(t, dir, "hr_roster.csv", "roster.csv")

	stdout, _, err := runReconStdout(t, "--dir", dir, "batch", "sc",
		testdata(t, "validation.csv"), "-f", "json")
	require.Error(t, err, "a failed upload fails the batch")

	var lines []batchLine
	require.NoError(t, json.Unmarshal([]byte(stdout), &lines), stdout)
	require.Len(t, lines, 2)
	assert.Empty(t, lines[0].Error, "good.csv")
	assert.Contains(t, lines[1].Error, "schema mismatch")

	assert.FileExists(t, filepath.Join(dir, "import", "processed", "good.csv"))
	assert.FileExists(t, filepath.Join(dir, "import", "roster.csv"), "failed uploads stay in import/")

	out, err := runRecon(t, "--dir", dir, "batch", "sc", testdata(t, "validation.csv"), "--keep")
	require.Error(t, err)
	assert.Contains(t, out, "1 of 1 uploads failed")
}

func TestBatch_Keep(t *testing.T) {
	dir := newProject(t)
	copyToImport(t, dir, "sc_receipts.csv", "jan.csv")

	_, stderr, err := runReconStdout(t, "--dir", dir, "batch", "sc",
		testdata(t, "validation.csv"), "-f", "json", "--keep")
	require.NoError(t, err, stderr)
	assert.FileExists(t, filepath.Join(dir, "import", "jan.csv"))
}

func TestBatch_Empty(t *testing.T) {
	dir := newProject(t)

	out, err := runRecon(t, "--dir", dir, "batch", "sc", testdata(t, "validation.csv"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "No uploads in")
}
