// Package report summarizes classified records for dashboards and filters
// them for review.
package report

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/output"
)

// CategoryCount is one bar of the category distribution.
type CategoryCount struct {
	Category model.Category `json:"category" yaml:"category"`
	Count    int            `json:"count" yaml:"count"`
}

// Summary holds the headline numbers of one reconciliation pass.
type Summary struct {
	Total             int             `json:"total" yaml:"total"`
	Matched           int             `json:"matched" yaml:"matched"`
	Discrepancy       int             `json:"discrepancy" yaml:"discrepancy"`
	Missing           int             `json:"missing" yaml:"missing"`
	ValidationPct     decimal.Decimal `json:"validation_pct" yaml:"validation_pct"` // matched / total, 0-100
	TopOutlet         string          `json:"top_outlet,omitempty" yaml:"top_outlet,omitempty"`
	TopOutletCount    int             `json:"top_outlet_count" yaml:"top_outlet_count"`
	LargestKey        string          `json:"largest_key,omitempty" yaml:"largest_key,omitempty"`
	LargestDifference decimal.Decimal `json:"largest_difference" yaml:"largest_difference"`
	LargestDate       string          `json:"largest_date,omitempty" yaml:"largest_date,omitempty"`
	TotalDifference   decimal.Decimal `json:"total_difference" yaml:"total_difference"` // sum of |difference|
	Categories        []CategoryCount `json:"categories" yaml:"categories"`
}

var hundred = decimal.NewFromInt(100)

// Summarize computes the Summary of records.
//
// The top outlet is the one with the most discrepancies, ties going to the
// smallest outlet code. The largest difference is by magnitude; the first
// record wins a tie.
func Summarize(records []model.ClassifiedRecord) Summary {
	s := Summary{
		Total:             len(records),
		ValidationPct:     decimal.Zero,
		LargestDifference: decimal.Zero,
		TotalDifference:   decimal.Zero,
	}

	counts := make(map[model.Category]int)
	perOutlet := make(map[string]int)
	largest := -1
	for i, r := range records {
		counts[r.Category]++
		if r.Category == model.CategoryMissing {
			s.Missing++
		}

		abs := r.AbsDifference()
		s.TotalDifference = s.TotalDifference.Add(abs)
		if largest < 0 || abs.GreaterThan(records[largest].AbsDifference()) {
			largest = i
		}

		if r.Status == model.StatusMatched {
			s.Matched++
			continue
		}
		s.Discrepancy++
		perOutlet[r.OutletCode]++
	}

	if s.Total > 0 {
		s.ValidationPct = decimal.NewFromInt(int64(s.Matched)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(s.Total))).
			Round(2)
	}

	outlets := make([]string, 0, len(perOutlet))
	for o := range perOutlet {
		outlets = append(outlets, o)
	}
	sort.Strings(outlets)
	for _, o := range outlets {
		if perOutlet[o] > s.TopOutletCount {
			s.TopOutlet, s.TopOutletCount = o, perOutlet[o]
		}
	}

	if largest >= 0 {
		r := records[largest]
		s.LargestKey = r.TransactionKey
		s.LargestDifference = r.Difference
		if !r.Date.IsZero() {
			s.LargestDate = r.Date.Format(time.DateOnly)
		}
	}

	s.Categories = make([]CategoryCount, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		s.Categories = append(s.Categories, CategoryCount{Category: c, Count: counts[c]})
	}
	return s
}

// Count returns the number of records in category c.
func (s Summary) Count(c model.Category) int {
	for _, cc := range s.Categories {
		if cc.Category == c {
			return cc.Count
		}
	}
	return 0
}

// Table renders the summary as a two-column metric table.
func (s Summary) Table() output.Data {
	d := output.Data{
		Headers: []string{"metric", "value"},
		Right:   []int{1},
		Rows: [][]string{
			{"Records", strconv.Itoa(s.Total)},
			{"Matched", strconv.Itoa(s.Matched)},
			{"Discrepancy", strconv.Itoa(s.Discrepancy)},
			{"Validation %", s.ValidationPct.StringFixed(2)},
			{"Missing", strconv.Itoa(s.Missing)},
			{"Total |difference|", s.TotalDifference.StringFixed(2)},
		},
	}
	if s.TopOutlet != "" {
		d.Rows = append(d.Rows, []string{"Top discrepancy outlet", s.TopOutlet + " (" + strconv.Itoa(s.TopOutletCount) + ")"})
	}
	if s.LargestKey != "" {
		largest := s.LargestDifference.StringFixed(2) + " (" + s.LargestKey
		if s.LargestDate != "" {
			largest += ", " + s.LargestDate
		}
		d.Rows = append(d.Rows, []string{"Largest difference", largest + ")"})
	}
	for _, cc := range s.Categories {
		d.Rows = append(d.Rows, []string{cc.Category.String(), strconv.Itoa(cc.Count)})
	}
	return d
}
