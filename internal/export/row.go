package export

import "github.com/cleared-dev/recon/internal/model"

// Row is the flat shape of a result record used for JSON and YAML output.
type Row struct {
	TransactionKey string `json:"transaction_key" yaml:"transaction_key"`
	OutletCode     string `json:"outlet_code" yaml:"outlet_code"`
	Date           string `json:"date" yaml:"date"`
	TargetValue    string `json:"target_value" yaml:"target_value"`
	ReferenceValue string `json:"reference_value" yaml:"reference_value"`
	Difference     string `json:"difference" yaml:"difference"`
	Status         string `json:"status" yaml:"status"`
	Category       string `json:"category" yaml:"category"`
}

// Flatten converts records to rows, formatted as in the CSV file.
func Flatten(records []model.ClassifiedRecord) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		cells := MarshalRecord(r)
		rows[i] = Row{
			TransactionKey: cells[colKey],
			OutletCode:     cells[colOutlet],
			Date:           cells[colDate],
			TargetValue:    cells[colTarget],
			ReferenceValue: cells[colRef],
			Difference:     cells[colDiff],
			Status:         cells[colStatus],
			Category:       cells[colCategory],
		}
	}
	return rows
}

// Strings returns the row's cells in CSV column order.
func (r Row) Strings() []string {
	return []string{
		r.TransactionKey,
		r.OutletCode,
		r.Date,
		r.TargetValue,
		r.ReferenceValue,
		r.Difference,
		r.Status,
		r.Category,
	}
}
