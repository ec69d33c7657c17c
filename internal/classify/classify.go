// Package classify assigns severity categories to reconciled records.
package classify

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/model"
)

// tier is a half-open bin [lower, upper). A nil upper is unbounded.
type tier struct {
	lower    decimal.Decimal
	upper    *decimal.Decimal
	category model.Category
}

var tiers = []tier{
	{lower: decimal.Zero, upper: bound(2001), category: model.CategoryRounding},
	{lower: decimal.NewFromInt(2001), upper: bound(10001), category: model.CategorySmall},
	{lower: decimal.NewFromInt(10001), upper: bound(100001), category: model.CategoryMedium},
	{lower: decimal.NewFromInt(100001), category: model.CategoryBig},
}

func bound(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

// Tier bins an absolute difference. Negative input is binned on its magnitude.
func Tier(abs decimal.Decimal) model.Category {
	abs = abs.Abs()
	for _, t := range tiers {
		if abs.LessThan(t.lower) {
			continue
		}
		if t.upper == nil || abs.LessThan(*t.upper) {
			return t.category
		}
	}
	return model.CategoryBig
}

// Primary classifies the first pass: bin, then Valid for Matched records.
func Primary(records []model.ReconciledRecord) []model.ClassifiedRecord {
	out := make([]model.ClassifiedRecord, len(records))
	for i, r := range records {
		out[i] = model.ClassifiedRecord{ReconciledRecord: r, Category: primaryCategory(r)}
	}
	return out
}

// Recalculated classifies the recalculation pass: bin, then Valid for Matched,
// then Missing when the alternate reference had no row. Missing wins.
func Recalculated(records []model.ReconciledRecord) []model.ClassifiedRecord {
	out := make([]model.ClassifiedRecord, len(records))
	for i, r := range records {
		c := primaryCategory(r)
		if !r.ReferenceFound {
			c = model.CategoryMissing
		}
		out[i] = model.ClassifiedRecord{ReconciledRecord: r, Category: c}
	}
	return out
}

func primaryCategory(r model.ReconciledRecord) model.Category {
	c := Tier(r.AbsDifference())
	if r.Status == model.StatusMatched {
		c = model.CategoryValid
	}
	return c
}
