package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/recon/internal/model"
)

func scProfile() Profile {
	return Profile{
		Side: "SC",
		Fields: []Field{
			{Name: "kode_outlet", Label: "Outlet Code"},
			{Name: "no_penerimaan", Label: "Receipt Number"},
			{Name: "tgl_penerimaan", Label: "Receipt Date"},
			{Name: "jml_neto", Label: "Net Amount"},
		},
		Outlet: "kode_outlet",
		Key:    "no_penerimaan",
		Date:   "tgl_penerimaan",
		Amount: "jml_neto",
	}
}

func TestProfileValidate(t *testing.T) {
	require.NoError(t, scProfile().Validate())

	p := scProfile()
	p.Amount = "total"
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount binding")

	// The alternate column is optional and need not be a required field.
	p = scProfile()
	p.Alternate = "total"
	assert.NoError(t, p.Validate())

	p = scProfile()
	p.Alternate = "jml_neto"
	err = p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alternate binding")

	p = scProfile()
	p.Fields = append(p.Fields, Field{Name: "kode_outlet"})
	assert.Error(t, p.Validate())

	assert.Error(t, Profile{Side: "x"}.Validate())
}

func TestOptionalColumn(t *testing.T) {
	tbl := &model.Table{Name: "val.csv", Columns: []string{"no_transaksi", "dpp", "grand", "gross"}}

	tests := []struct {
		name   string
		table  *model.Table
		field  string
		m      Mapping
		want   string
		wantOK bool
	}{
		{name: "present", table: &model.Table{Columns: []string{"dpp", "total"}}, field: "total", want: "total", wantOK: true},
		{name: "absent", table: tbl, field: "total"},
		{name: "empty name", table: tbl, field: ""},
		{name: "mapped", table: tbl, field: "total", m: Mapping{"grand": "total"}, want: "grand", wantOK: true},
		{name: "mapped column absent", table: tbl, field: "total", m: Mapping{"net": "total"}},
		{name: "two mapped picks first", table: tbl, field: "total", m: Mapping{"gross": "total", "grand": "total"}, want: "grand", wantOK: true},
		{name: "mapped to another field", table: tbl, field: "total", m: Mapping{"grand": "dpp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := OptionalColumn(tt.table, tt.field, tt.m)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_AllPresentPassesThrough(t *testing.T) {
	tbl := &model.Table{
		Name:    "sc.csv",
		Columns: []string{"kode_outlet", "no_penerimaan", "tgl_penerimaan", "jml_neto", "extra"},
	}
	got, err := Resolve(tbl, scProfile(), nil)
	require.NoError(t, err)
	assert.Same(t, tbl, got)
}

func TestResolve_NonePresentIsSchemaMismatch(t *testing.T) {
	tbl := &model.Table{Name: "payroll.csv", Columns: []string{"employee", "salary"}}

	_, err := Resolve(tbl, scProfile(), Mapping{"employee": "kode_outlet"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
	assert.False(t, errors.Is(err, ErrIncompleteMapping))

	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "SC", mismatch.Side)
	assert.Equal(t, "payroll.csv", mismatch.Table)
	assert.Contains(t, err.Error(), "no_penerimaan")
}

func TestResolve_PartialWithoutMapping(t *testing.T) {
	tbl := &model.Table{
		Name:    "sc.csv",
		Columns: []string{"outlet", "no_penerimaan", "tanggal", "jml_neto"},
	}

	_, err := Resolve(tbl, scProfile(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteMapping))

	var incomplete *IncompleteMappingError
	require.True(t, errors.As(err, &incomplete))
	req := incomplete.Request
	assert.Equal(t, "SC", req.Side)
	assert.Equal(t, []Field{
		{Name: "kode_outlet", Label: "Outlet Code"},
		{Name: "tgl_penerimaan", Label: "Receipt Date"},
	}, req.Missing)
	assert.Equal(t, []string{"outlet", "tanggal"}, req.Candidates)
	assert.Len(t, incomplete.Problems, 2)
}

func TestResolve_PartialWithCompleteMapping(t *testing.T) {
	tbl := &model.Table{
		Name:    "sc.csv",
		Columns: []string{"outlet", "no_penerimaan", "tanggal", "jml_neto"},
		Rows:    [][]string{{"O1", "R1", "2025-01-03", "10"}},
	}

	got, err := Resolve(tbl, scProfile(), Mapping{
		"outlet":  "kode_outlet",
		"tanggal": "tgl_penerimaan",
		"ignored": "kode_outlet", // not a column of this table
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"kode_outlet", "no_penerimaan", "tgl_penerimaan", "jml_neto"}, got.Columns)
	assert.Equal(t, []string{"outlet", "no_penerimaan", "tanggal", "jml_neto"}, tbl.Columns)
	assert.Equal(t, tbl.Rows, got.Rows)
}

func TestResolve_MappingMustBeInjective(t *testing.T) {
	tbl := &model.Table{
		Name:    "sc.csv",
		Columns: []string{"outlet_a", "outlet_b", "no_penerimaan", "tgl_penerimaan", "jml_neto"},
	}

	_, err := Resolve(tbl, scProfile(), Mapping{
		"outlet_a": "kode_outlet",
		"outlet_b": "kode_outlet",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteMapping))
	assert.Contains(t, err.Error(), `mapped from both "outlet_a" and "outlet_b"`)
}

func TestResolve_RequiredColumnCannotBeReused(t *testing.T) {
	tbl := &model.Table{
		Name:    "sc.csv",
		Columns: []string{"no_penerimaan", "tgl_penerimaan", "jml_neto"},
	}

	_, err := Resolve(tbl, scProfile(), Mapping{"jml_neto": "kode_outlet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "itself a required field")
}

func TestInspect(t *testing.T) {
	full := &model.Table{Columns: []string{"kode_outlet", "no_penerimaan", "tgl_penerimaan", "jml_neto"}}
	assert.Nil(t, Inspect(full, scProfile()))

	partial := &model.Table{Name: "x.csv", Columns: []string{"no_penerimaan", "foo"}}
	req := Inspect(partial, scProfile())
	require.NotNil(t, req)
	assert.Len(t, req.Missing, 3)
	assert.Equal(t, []string{"foo"}, req.Candidates)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1500", "1500", true},
		{" -12.50 ", "-12.5", true},
		{"1e3", "1000", true},
		{"", "0", false},
		{"n/a", "0", false},
		{"1,500", "0", false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, "ParseAmount(%q)", tt.in)
		assert.Equal(t, tt.want, got.String(), "ParseAmount(%q)", tt.in)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-01-03", "2025/01/03", "01/03/2025", "03-Jan-2025"} {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), in)
	}

	got, ok := ParseDate("2025-01-03 10:30:00")
	require.True(t, ok)
	assert.Equal(t, 10, got.Hour())

	_, ok = ParseDate("yesterday")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestCanonicalize(t *testing.T) {
	tbl := &model.Table{
		Name:    "sc.csv",
		Columns: []string{"kode_outlet", "no_penerimaan", "tgl_penerimaan", "jml_neto"},
		Rows: [][]string{
			{"O1", "R1", "2025-01-03", "1000"},
			{"O1", "R1", "not a date", "abc"},
			{"O2", "", "2025-01-04", "5"},
			{"O3", "R3"},
		},
	}

	recs, stats, err := Canonicalize(tbl, scProfile(), "jml_neto")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "R1", recs[0].TransactionKey)
	assert.Equal(t, "1000", recs[0].Amount.String())
	assert.False(t, recs[0].Date.IsZero())

	assert.True(t, recs[1].Amount.IsZero())
	assert.True(t, recs[1].Date.IsZero())

	assert.Equal(t, "R3", recs[2].TransactionKey)
	assert.True(t, recs[2].Amount.IsZero())

	assert.Equal(t, CoercionStats{Rows: 4, AmountDefault: 1, DateDefault: 1, BlankKey: 1}, stats)
}

func TestCanonicalize_MissingColumn(t *testing.T) {
	tbl := &model.Table{Name: "sc.csv", Columns: []string{"kode_outlet", "no_penerimaan", "tgl_penerimaan"}}
	_, _, err := Canonicalize(tbl, scProfile(), "jml_neto")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `amount column "jml_neto" not found`)
}
