package model

import "strings"

// Table is an uploaded sheet before its columns are mapped.
// Cells stay as text; coercion happens when records are canonicalized.
type Table struct {
	Name    string // file name or side label, used in error messages
	Columns []string
	Rows    [][]string
}

// Index returns the position of col, or -1.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// HasColumn reports whether col is one of the table's columns.
func (t *Table) HasColumn(col string) bool {
	return t.Index(col) >= 0
}

// Cell returns the trimmed value at idx, or "" for short rows and idx < 0.
func (t *Table) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Renamed returns a copy of t with columns renamed per renames (old -> new).
// Rows are shared with t; neither is modified.
func (t *Table) Renamed(renames map[string]string) *Table {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if to, ok := renames[c]; ok {
			cols[i] = to
		} else {
			cols[i] = c
		}
	}
	return &Table{Name: t.Name, Columns: cols, Rows: t.Rows}
}
