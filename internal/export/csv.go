// Package export writes reconciliation results as CSV files and XLSX
// workbooks, and reads CSV results back.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/model"
)

// Header is the CSV header of a results file.
const Header = "transaction_key,outlet_code,date,target_value,reference_value,difference,status,category"

const (
	numFields   = 8
	dateFormat  = "2006-01-02"
	colKey      = 0
	colOutlet   = 1
	colDate     = 2
	colTarget   = 3
	colRef      = 4
	colDiff     = 5
	colStatus   = 6
	colCategory = 7
)

// Columns returns the header fields in file order.
func Columns() []string {
	return strings.Split(Header, ",")
}

// ReadRecords reads all records from a results CSV.
func ReadRecords(r io.Reader) ([]model.ClassifiedRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading results CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected header %q", got)
	}

	var out []model.ClassifiedRecord
	for i, row := range records[1:] {
		rec, err := UnmarshalRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteRecords writes records to w, header first.
func WriteRecords(w io.Writer, records []model.ClassifiedRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Columns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRecord converts a record to a CSV row. Amounts have at least two
// decimals and are never rounded, so a difference just above the matching
// tolerance stays visible. A null date is written blank.
func MarshalRecord(r model.ClassifiedRecord) []string {
	row := make([]string, numFields)
	row[colKey] = r.TransactionKey
	row[colOutlet] = r.OutletCode
	if !r.Date.IsZero() {
		row[colDate] = r.Date.Format(dateFormat)
	}
	row[colTarget] = formatAmount(r.TargetValue)
	row[colRef] = formatAmount(r.ReferenceValue)
	row[colDiff] = formatAmount(r.Difference)
	row[colStatus] = string(r.Status)
	row[colCategory] = r.Category.String()
	return row
}

// formatAmount writes d with two decimals, or with all of its own when it
// carries more.
func formatAmount(d decimal.Decimal) string {
	places := int32(2)
	if exp := -d.Exponent(); exp > places {
		places = exp
	}
	return d.StringFixed(places)
}

// UnmarshalRecord converts a CSV row to a record. The file does not carry
// whether a reference row existed, so ReferenceFound is inferred: false only
// for the Missing category.
func UnmarshalRecord(record []string) (model.ClassifiedRecord, error) {
	if len(record) != numFields {
		return model.ClassifiedRecord{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	var date time.Time
	if record[colDate] != "" {
		var err error
		date, err = time.Parse(dateFormat, record[colDate])
		if err != nil {
			return model.ClassifiedRecord{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
		}
	}

	amounts := make([]decimal.Decimal, 3)
	for i, col := range []int{colTarget, colRef, colDiff} {
		d, err := decimal.NewFromString(record[col])
		if err != nil {
			return model.ClassifiedRecord{}, fmt.Errorf("parsing %s %q: %w", Columns()[col], record[col], err)
		}
		amounts[i] = d
	}

	status, err := model.ParseStatus(record[colStatus])
	if err != nil {
		return model.ClassifiedRecord{}, err
	}
	category, err := model.ParseCategory(record[colCategory])
	if err != nil {
		return model.ClassifiedRecord{}, err
	}

	return model.ClassifiedRecord{
		ReconciledRecord: model.ReconciledRecord{
			TransactionKey: record[colKey],
			OutletCode:     record[colOutlet],
			Date:           date,
			TargetValue:    amounts[0],
			ReferenceValue: amounts[1],
			Difference:     amounts[2],
			Status:         status,
			ReferenceFound: category != model.CategoryMissing,
		},
		Category: category,
	}, nil
}
