package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalRecord is one uploaded row after its columns are mapped and its values coerced.
type CanonicalRecord struct {
	OutletCode     string
	TransactionKey string
	Date           time.Time       // zero when the source value did not parse
	Amount         decimal.Decimal // zero when the source value did not parse
}

// AggregatedRecord is the single row kept per transaction key on one side.
type AggregatedRecord struct {
	TransactionKey string
	OutletCode     string    // first seen
	Date           time.Time // first seen, zero = null
	Amount         decimal.Decimal
}

// Status is the binary match outcome of a reconciled pair.
type Status string

const (
	StatusMatched     Status = "Matched"
	StatusDiscrepancy Status = "Discrepancy"
)

// ParseStatus validates a status read back from an export or a filter flag.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusMatched, StatusDiscrepancy:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ReconciledRecord is a source key joined with its counterpart amount.
type ReconciledRecord struct {
	TransactionKey string
	OutletCode     string
	Date           time.Time
	TargetValue    decimal.Decimal
	ReferenceValue decimal.Decimal // zero when the reference side has no row for the key
	Difference     decimal.Decimal // TargetValue - ReferenceValue
	Status         Status
	ReferenceFound bool
}

// AbsDifference returns |Difference|.
func (r ReconciledRecord) AbsDifference() decimal.Decimal {
	return r.Difference.Abs()
}

// ClassifiedRecord is a reconciled record with its severity category.
type ClassifiedRecord struct {
	ReconciledRecord
	Category Category
}
