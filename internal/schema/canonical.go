package schema

import (
	"fmt"

	"github.com/cleared-dev/recon/internal/model"
)

// CoercionStats counts values replaced by a default while canonicalizing.
type CoercionStats struct {
	Rows          int `json:"rows" yaml:"rows"`
	AmountDefault int `json:"amount_default" yaml:"amount_default"` // became 0
	DateDefault   int `json:"date_default" yaml:"date_default"`     // became null
	BlankKey      int `json:"blank_key" yaml:"blank_key"`           // row skipped
}

// Canonicalize converts a resolved table into canonical records using the
// profile's bindings, reading the amount from amountColumn.
//
// Bad amounts become 0 and bad dates become null; neither stops the run.
// Rows without a transaction key cannot be grouped and are skipped.
func Canonicalize(t *model.Table, p Profile, amountColumn string) ([]model.CanonicalRecord, CoercionStats, error) {
	var stats CoercionStats

	bindings := []struct{ role, name string }{
		{"outlet", p.Outlet},
		{"key", p.Key},
		{"date", p.Date},
		{"amount", amountColumn},
	}
	idx := make(map[string]int, len(bindings))
	for _, b := range bindings {
		i := t.Index(b.name)
		if i < 0 {
			return nil, stats, fmt.Errorf("%s file %q: %s column %q not found", p.Side, t.Name, b.role, b.name)
		}
		idx[b.role] = i
	}

	records := make([]model.CanonicalRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		stats.Rows++

		key := t.Cell(row, idx["key"])
		if key == "" {
			stats.BlankKey++
			continue
		}

		rawAmount := t.Cell(row, idx["amount"])
		amount, ok := ParseAmount(rawAmount)
		if !ok && rawAmount != "" {
			stats.AmountDefault++
		}

		rawDate := t.Cell(row, idx["date"])
		date, ok := ParseDate(rawDate)
		if !ok && rawDate != "" {
			stats.DateDefault++
		}

		records = append(records, model.CanonicalRecord{
			OutletCode:     t.Cell(row, idx["outlet"]),
			TransactionKey: key,
			Date:           date,
			Amount:         amount,
		})
	}
	return records, stats, nil
}
