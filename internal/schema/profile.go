// Package schema maps uploaded columns onto the fields a ledger side requires
// and turns mapped rows into canonical records.
package schema

import (
	"fmt"
	"strings"
)

// Field is one required column and the label shown when asking a user to map it.
type Field struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
}

// Profile describes one side of a reconciliation: the columns an upload must
// supply and which of them play the canonical roles.
type Profile struct {
	Side      string  `json:"side" yaml:"side"`
	Fields    []Field `json:"fields" yaml:"fields"`
	Outlet    string  `json:"outlet" yaml:"outlet"`
	Key       string  `json:"key" yaml:"key"`
	Date      string  `json:"date" yaml:"date"`
	Amount    string  `json:"amount" yaml:"amount"`
	Alternate string  `json:"alternate,omitempty" yaml:"alternate,omitempty"` // optional recalculation amount column, reference side only
}

// FieldNames returns the required column names in profile order.
func (p Profile) FieldNames() []string {
	names := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		names[i] = f.Name
	}
	return names
}

// HasField reports whether name is a required field.
func (p Profile) HasField(name string) bool {
	for _, f := range p.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Validate checks that every role binding names a required field. The
// alternate column is optional in uploads and so is not a required field.
func (p Profile) Validate() error {
	if len(p.Fields) == 0 {
		return fmt.Errorf("profile %s: no required fields", p.Side)
	}
	seen := make(map[string]bool, len(p.Fields))
	for _, f := range p.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("profile %s: field with empty name", p.Side)
		}
		if seen[f.Name] {
			return fmt.Errorf("profile %s: duplicate field %q", p.Side, f.Name)
		}
		seen[f.Name] = true
	}

	bindings := []struct{ role, name string }{
		{"outlet", p.Outlet},
		{"key", p.Key},
		{"date", p.Date},
		{"amount", p.Amount},
	}
	for _, b := range bindings {
		if b.name == "" {
			return fmt.Errorf("profile %s: %s binding is empty", p.Side, b.role)
		}
		if !seen[b.name] {
			return fmt.Errorf("profile %s: %s binding %q is not a required field", p.Side, b.role, b.name)
		}
	}
	if p.Alternate != "" && p.Alternate == p.Amount {
		return fmt.Errorf("profile %s: alternate binding %q is the amount column", p.Side, p.Alternate)
	}
	return nil
}
