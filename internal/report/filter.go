package report

import (
	"slices"
	"strings"
	"time"

	"github.com/cleared-dev/recon/internal/model"
)

// Filter narrows a result set. Empty fields do not constrain. From and To
// are inclusive calendar days; records with a null date are dropped once
// either bound is set.
type Filter struct {
	Statuses    []model.Status
	Outlets     []string
	KeyContains string
	From        time.Time
	To          time.Time
	Categories  []model.Category
}

// IsZero reports whether f keeps every record.
func (f Filter) IsZero() bool {
	return len(f.Statuses) == 0 && len(f.Outlets) == 0 && f.KeyContains == "" &&
		f.From.IsZero() && f.To.IsZero() && len(f.Categories) == 0
}

// Apply returns the records f keeps, in input order.
func (f Filter) Apply(records []model.ClassifiedRecord) []model.ClassifiedRecord {
	out := make([]model.ClassifiedRecord, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Match reports whether r passes f.
func (f Filter) Match(r model.ClassifiedRecord) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status) {
		return false
	}
	if len(f.Outlets) > 0 && !slices.Contains(f.Outlets, r.OutletCode) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, r.Category) {
		return false
	}
	if f.KeyContains != "" && !strings.Contains(strings.ToLower(r.TransactionKey), strings.ToLower(f.KeyContains)) {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	if r.Date.IsZero() {
		return false
	}
	day := truncate(r.Date)
	if !f.From.IsZero() && day.Before(truncate(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(truncate(f.To)) {
		return false
	}
	return true
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
