package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/recon/internal/model"
)

// Sheet names of a results workbook.
const (
	SheetPrimary      = "Primary"
	SheetRecalculated = "Recalculated"
)

// WriteWorkbook writes an XLSX workbook with one sheet per pass. The
// Recalculated sheet is omitted when recalculated is nil.
func WriteWorkbook(w io.Writer, primary, recalculated []model.ClassifiedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetPrimary); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := writeSheet(f, SheetPrimary, bold, primary); err != nil {
		return err
	}
	if recalculated != nil {
		if _, err := f.NewSheet(SheetRecalculated); err != nil {
			return fmt.Errorf("creating sheet: %w", err)
		}
		if err := writeSheet(f, SheetRecalculated, bold, recalculated); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, records []model.ClassifiedRecord) error {
	header := make([]any, numFields)
	for i, c := range Columns() {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}

	for i, r := range records {
		cells := MarshalRecord(r)
		row := []any{
			cells[colKey],
			cells[colOutlet],
			cells[colDate],
			r.TargetValue.InexactFloat64(),
			r.ReferenceValue.InexactFloat64(),
			r.Difference.InexactFloat64(),
			cells[colStatus],
			cells[colCategory],
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "H", 18); err != nil {
		return fmt.Errorf("%s column width: %w", sheet, err)
	}
	return nil
}
