package report

import (
	"github.com/cleared-dev/recon/internal/export"
	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/output"
)

// Records renders as the results table, one line per record.
type Records []model.ClassifiedRecord

// Table implements output.Tabular.
func (rs Records) Table() output.Data {
	d := output.Data{
		Headers: export.Columns(),
		Right:   []int{3, 4, 5},
		Rows:    make([][]string, len(rs)),
	}
	for i, r := range rs {
		d.Rows[i] = export.MarshalRecord(r)
	}
	return d
}
