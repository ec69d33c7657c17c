package commands_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/recon/internal/export"
	"github.com/cleared-dev/recon/internal/model"
)

type runDocument struct {
	RunID    string `json:"run_id"`
	Workflow string `json:"workflow"`
	Source   string `json:"source"`
	Summary  struct {
		Total          int    `json:"total"`
		Matched        int    `json:"matched"`
		Discrepancy    int    `json:"discrepancy"`
		TopOutlet      string `json:"top_outlet"`
		TopOutletCount int    `json:"top_outlet_count"`
		LargestKey     string `json:"largest_key"`
	} `json:"summary"`
	Records             []export.Row `json:"records"`
	RecalculatedSummary *struct {
		Missing int `json:"missing"`
	} `json:"recalculated_summary"`
	Recalculated []export.Row `json:"recalculated"`
}

func runJSON(t *testing.T, args ...string) runDocument {
	t.Helper()
	stdout, stderr, err := runReconStdout(t, append(args, "-f", "json")...)
	require.NoError(t, err, stderr)

	var doc runDocument
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc), stdout)
	return doc
}

func rowByKey(rows []export.Row, key string) export.Row {
	for _, r := range rows {
		if r.TransactionKey == key {
			return r
		}
	}
	return export.Row{}
}

func TestRun_JSON(t *testing.T) {
	dir := newProject(t)

	doc := runJSON(t, "--dir", dir, "run", "sc",
		testdata(t, "sc_receipts.csv"), testdata(t, "validation.csv"), "--no-export")

	assert.True(t, strings.HasPrefix(doc.RunID, "PRO-"), doc.RunID)
	assert.Equal(t, "sc", doc.Workflow)
	assert.Equal(t, "sc_receipts.csv", doc.Source)

	assert.Equal(t, 5, doc.Summary.Total)
	assert.Equal(t, 2, doc.Summary.Matched)
	assert.Equal(t, 3, doc.Summary.Discrepancy)
	assert.Equal(t, "OUT02", doc.Summary.TopOutlet)
	assert.Equal(t, 2, doc.Summary.TopOutletCount)
	assert.Equal(t, "RCV-0004", doc.Summary.LargestKey)

	require.Len(t, doc.Records, 5)
	agg := rowByKey(doc.Records, "RCV-0001")
	assert.Equal(t, "1500.00", agg.TargetValue)
	assert.Equal(t, model.CategoryValid.String(), agg.Category)
	assert.Equal(t, model.CategoryBig.String(), rowByKey(doc.Records, "RCV-0004").Category)
	assert.Equal(t, model.CategoryMedium.String(), rowByKey(doc.Records, "RCV-0002").Category)

	// Only primary discrepancies are recalculated.
	require.NotNil(t, doc.RecalculatedSummary)
	assert.Equal(t, 1, doc.RecalculatedSummary.Missing)
	require.Len(t, doc.Recalculated, 3)
	assert.Equal(t, model.CategoryMissing.String(), rowByKey(doc.Recalculated, "RCV-0002").Category)
	assert.Equal(t, model.CategoryValid.String(), rowByKey(doc.Recalculated, "RCV-0003").Category)
	assert.Equal(t, "-5.00", rowByKey(doc.Recalculated, "RCV-0004").Difference)

	entries, err := os.ReadDir(filepath.Join(dir, "exports"))
	require.NoError(t, err)
	assert.Empty(t, entries, "--no-export should not write files")
}

func TestRun_NoRecalc(t *testing.T) {
	dir := newProject(t)

	doc := runJSON(t, "--dir", dir, "run", "sc",
		testdata(t, "sc_receipts.csv"), testdata(t, "validation.csv"), "--no-export", "--no-recalc")

	assert.Equal(t, 5, doc.Summary.Total)
	assert.Nil(t, doc.RecalculatedSummary)
	assert.Empty(t, doc.Recalculated)
}

func TestRun_ReferenceWithoutAlternate(t *testing.T) {
	dir := newProject(t)

	doc := runJSON(t, "--dir", dir, "run", "sc",
		testdata(t, "sc_receipts.csv"), testdata(t, "validation_dpp_only.csv"), "--no-export")

	assert.Equal(t, 5, doc.Summary.Total)
	assert.Equal(t, 2, doc.Summary.Matched)
	require.Len(t, doc.Records, 5)
	assert.Nil(t, doc.RecalculatedSummary)
	assert.Empty(t, doc.Recalculated)
}

func TestRun_Exports(t *testing.T) {
	dir := newProject(t)

	out, err := runRecon(t, "--dir", dir, "run", "sc",
		testdata(t, "sc_receipts.csv"), testdata(t, "validation.csv"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "RCV-0004")
	assert.Contains(t, out, "Recalculated against the reference alternate total")
	assert.Contains(t, out, "OUT02 (2)")

	entries, err := os.ReadDir(filepath.Join(dir, "exports"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Len(t, names, 3, "csv, recalculated csv and workbook: %v", names)

	var primary string
	for _, n := range names {
		assert.True(t, strings.HasPrefix(n, "PRO-"), n)
		if strings.HasSuffix(n, ".csv") && !strings.HasSuffix(n, "_recalculated.csv") {
			primary = n
		}
	}
	require.NotEmpty(t, primary)

	records, err := export.ReadFile(filepath.Join(dir, "exports", primary))
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestRun_OutFlag(t *testing.T) {
	dir := newProject(t)
	out := filepath.Join(t.TempDir(), "results")

	_, stderr, err := runReconStdout(t, "--dir", dir, "run", "sc",
		testdata(t, "sc_receipts.csv"), testdata(t, "validation.csv"), "--out", out, "--no-recalc", "-f", "json")
	require.NoError(t, err, stderr)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "csv and workbook without a recalculation pass")
}

func TestRun_MissingColumnNeedsMapping(t *testing.T) {
	dir := newProject(t)

	out, err := runRecon(t, "--dir", dir, "run", "sc",
		testdata(t, "sc_renamed.csv"), testdata(t, "validation.csv"), "--no-export")
	require.Error(t, err)
	assert.Contains(t, out, "incomplete column mapping")
	assert.Contains(t, out, "--map-source")
	assert.Contains(t, out, "kode_outlet")
	assert.Contains(t, out, "Outlet")
}

func TestRun_MappingFlag(t *testing.T) {
	dir := newProject(t)

	doc := runJSON(t, "--dir", dir, "run", "sc",
		testdata(t, "sc_renamed.csv"), testdata(t, "validation.csv"),
		"--no-export", "--map-source", "Outlet=kode_outlet")

	require.Len(t, doc.Records, 1)
	assert.Equal(t, "OUT01", doc.Records[0].OutletCode)
	assert.Equal(t, 1, doc.Summary.Matched)
}

func TestRun_SaveMapping(t *testing.T) {
	dir := newProject(t)
	args := []string{"--dir", dir, "run", "sc",
		testdata(t, "sc_renamed.csv"), testdata(t, "validation.csv"), "--no-export"}

	_ = runJSON(t, append(args, "--map-source", "Outlet=kode_outlet", "--save-mapping")...)

	data, err := os.ReadFile(filepath.Join(dir, "recon.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Outlet: kode_outlet")

	// The stored mapping is used without the flag.
	doc := runJSON(t, args...)
	assert.Equal(t, 1, doc.Summary.Matched)
}

func TestRun_Errors(t *testing.T) {
	dir := newProject(t)
	receipts := testdata(t, "sc_receipts.csv")
	validation := testdata(t, "validation.csv")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "unknown workflow",
			args:    []string{"run", "nope", receipts, validation},
			wantErr: `unknown workflow "nope"`,
		},
		{
			name:    "wrong document",
			args:    []string{"run", "sc", testdata(t, "hr_roster.csv"), validation},
			wantErr: "hr_roster.csv",
		},
		{
			name:    "missing source",
			args:    []string{"run", "sc", filepath.Join(dir, "nope.csv"), validation},
			wantErr: "could not load source",
		},
		{
			name:    "unsupported reference",
			args:    []string{"run", "sc", receipts, filepath.Join(dir, "recon.yaml")},
			wantErr: "unsupported file type",
		},
		{
			name:    "bad mapping flag",
			args:    []string{"run", "sc", receipts, validation, "--map-source", "Outlet"},
			wantErr: "invalid mapping",
		},
		{
			name:    "analysis without a key",
			args:    []string{"run", "sc", receipts, validation, "--analyze"},
			wantErr: "GEMINI_API_KEY",
		},
		{
			name:    "wrong arg count",
			args:    []string{"run", "sc", receipts},
			wantErr: "accepts 3 arg(s)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runRecon(t, append([]string{"--dir", dir}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, out, tt.wantErr)
		})
	}
}
