package schema

import (
	"fmt"
	"sort"

	"github.com/cleared-dev/recon/internal/model"
)

// Mapping assigns uploaded columns to required field names (column -> field).
type Mapping map[string]string

// Inspect returns what Resolve would ask for, or nil when every required
// field is already present. It does not check for a schema mismatch.
func Inspect(t *model.Table, p Profile) *MappingRequest {
	var missing []Field
	for _, f := range p.Fields {
		if !t.HasColumn(f.Name) {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var candidates []string
	for _, c := range t.Columns {
		if !p.HasField(c) {
			candidates = append(candidates, c)
		}
	}
	return &MappingRequest{
		Side:       p.Side,
		Table:      t.Name,
		Missing:    missing,
		Candidates: candidates,
	}
}

// Resolve returns a table whose columns include every field of p.
//
// A table with none of the fields fails with *SchemaMismatchError. A table with
// all of them is returned as is. Otherwise m must assign one distinct candidate
// column to each missing field; the result is a renamed copy of t. Entries of m
// for fields the table already has, or for columns it does not have, are ignored.
func Resolve(t *model.Table, p Profile, m Mapping) (*model.Table, error) {
	present := 0
	for _, f := range p.Fields {
		if t.HasColumn(f.Name) {
			present++
		}
	}
	if present == 0 {
		return nil, &SchemaMismatchError{Side: p.Side, Table: t.Name, Required: p.FieldNames()}
	}

	req := Inspect(t, p)
	if req == nil {
		return t, nil
	}

	candidates := make(map[string]bool, len(req.Candidates))
	for _, c := range req.Candidates {
		candidates[c] = true
	}

	// Walk columns in sorted order so problems are reported deterministically.
	cols := make([]string, 0, len(m))
	for col := range m {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	missing := make(map[string]bool, len(req.Missing))
	for _, f := range req.Missing {
		missing[f.Name] = true
	}

	renames := make(map[string]string)
	assigned := make(map[string]string) // field -> column
	var problems []string
	for _, col := range cols {
		field := m[col]
		if !missing[field] || !t.HasColumn(col) {
			continue
		}
		if !candidates[col] {
			problems = append(problems, fmt.Sprintf("column %q is itself a required field", col))
			continue
		}
		if prev, dup := assigned[field]; dup {
			problems = append(problems, fmt.Sprintf("field %q mapped from both %q and %q", field, prev, col))
			continue
		}
		assigned[field] = col
		renames[col] = field
	}

	for _, f := range req.Missing {
		if _, ok := assigned[f.Name]; !ok {
			problems = append(problems, fmt.Sprintf("no column mapped to %q (%s)", f.Name, f.Label))
		}
	}
	if len(problems) > 0 {
		return nil, &IncompleteMappingError{Request: *req, Problems: problems}
	}

	return t.Renamed(renames), nil
}

// OptionalColumn finds the column of t holding the optional field name: the
// column itself when present, otherwise a column m maps onto it. It reports
// false when the upload has neither.
func OptionalColumn(t *model.Table, name string, m Mapping) (string, bool) {
	if name == "" {
		return "", false
	}
	if t.HasColumn(name) {
		return name, true
	}
	cols := make([]string, 0, len(m))
	for col, field := range m {
		if field == name && t.HasColumn(col) {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return "", false
	}
	sort.Strings(cols)
	return cols[0], true
}
