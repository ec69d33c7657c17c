// Package aggregate reduces canonical records to one row per natural key.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cleared-dev/recon/internal/model"
)

// GroupBy selects the natural key records are grouped on.
type GroupBy string

const (
	GroupByTransaction GroupBy = "transaction"
	GroupByOutletDate  GroupBy = "outlet_date"
)

// ParseGroupBy validates a group-by name; "" means GroupByTransaction.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(strings.ToLower(s)) {
	case "", GroupByTransaction:
		return GroupByTransaction, nil
	case GroupByOutletDate:
		return GroupByOutletDate, nil
	}
	return "", fmt.Errorf("unknown group_by %q (want %s or %s)", s, GroupByTransaction, GroupByOutletDate)
}

// Aggregate groups records by the given key.
func Aggregate(records []model.CanonicalRecord, by GroupBy) []model.AggregatedRecord {
	if by == GroupByOutletDate {
		return ByOutletDate(records)
	}
	return ByKey(records)
}

// ByKey returns one record per transaction key, sorted by key. Amounts are
// summed; outlet and date come from the first row of each key in input order.
func ByKey(records []model.CanonicalRecord) []model.AggregatedRecord {
	return group(records, func(r model.CanonicalRecord) string { return r.TransactionKey })
}

// ByOutletDate groups on outlet and calendar date. The key has the form
// "OUTLET/2006-01-02", with "-" in place of a null date.
func ByOutletDate(records []model.CanonicalRecord) []model.AggregatedRecord {
	return group(records, OutletDateKey)
}

// OutletDateKey builds the synthetic key used by ByOutletDate.
func OutletDateKey(r model.CanonicalRecord) string {
	day := "-"
	if !r.Date.IsZero() {
		day = r.Date.Format("2006-01-02")
	}
	return r.OutletCode + "/" + day
}

func group(records []model.CanonicalRecord, keyOf func(model.CanonicalRecord) string) []model.AggregatedRecord {
	byKey := make(map[string]*model.AggregatedRecord)
	for _, r := range records {
		key := keyOf(r)
		agg, ok := byKey[key]
		if !ok {
			byKey[key] = &model.AggregatedRecord{
				TransactionKey: key,
				OutletCode:     r.OutletCode,
				Date:           r.Date,
				Amount:         r.Amount,
			}
			continue
		}
		agg.Amount = agg.Amount.Add(r.Amount)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.AggregatedRecord, len(keys))
	for i, k := range keys {
		out[i] = *byKey[k]
	}
	return out
}
