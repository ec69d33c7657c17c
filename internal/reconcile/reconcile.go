// Package reconcile joins aggregated source records with their reference
// counterparts and decides whether each pair matches.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/model"
)

var (
	// Tolerance is the largest |difference| still treated as Matched in the primary pass.
	Tolerance = decimal.RequireFromString("0.01")

	// RecalcThreshold is the smallest |difference| still treated as a
	// Discrepancy in the recalculation pass.
	RecalcThreshold = decimal.NewFromInt(10)
)

// Join left-joins source onto reference by transaction key. Every source key
// appears once, in source order. A key with no reference row is compared
// against zero.
func Join(source, reference []model.AggregatedRecord) []model.ReconciledRecord {
	refs := index(reference)

	out := make([]model.ReconciledRecord, 0, len(source))
	for _, src := range source {
		ref, found := refs[src.TransactionKey]
		rec := pair(src.TransactionKey, src.OutletCode, src.Date, src.Amount, ref, found)
		if rec.AbsDifference().GreaterThan(Tolerance) {
			rec.Status = model.StatusDiscrepancy
		} else {
			rec.Status = model.StatusMatched
		}
		out = append(out, rec)
	}
	return out
}

// Recalculate re-joins the primary pass's discrepancies against an alternate
// reference amount. Matched records are dropped. A difference of 10 or more
// stays a Discrepancy.
func Recalculate(primary []model.ReconciledRecord, alternate []model.AggregatedRecord) []model.ReconciledRecord {
	refs := index(alternate)

	var out []model.ReconciledRecord
	for _, p := range primary {
		if p.Status != model.StatusDiscrepancy {
			continue
		}
		ref, found := refs[p.TransactionKey]
		rec := pair(p.TransactionKey, p.OutletCode, p.Date, p.TargetValue, ref, found)
		if rec.AbsDifference().GreaterThanOrEqual(RecalcThreshold) {
			rec.Status = model.StatusDiscrepancy
		} else {
			rec.Status = model.StatusMatched
		}
		out = append(out, rec)
	}
	return out
}

func index(records []model.AggregatedRecord) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(records))
	for _, r := range records {
		m[r.TransactionKey] = m[r.TransactionKey].Add(r.Amount)
	}
	return m
}

func pair(key, outlet string, date time.Time, target, ref decimal.Decimal, found bool) model.ReconciledRecord {
	if !found {
		ref = decimal.Zero
	}
	return model.ReconciledRecord{
		TransactionKey: key,
		OutletCode:     outlet,
		Date:           date,
		TargetValue:    target,
		ReferenceValue: ref,
		Difference:     target.Sub(ref),
		ReferenceFound: found,
	}
}
