package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/recon/internal/model"
)

// Files lists what SaveRun wrote. Recalculated is empty when the pass did
// not run.
type Files struct {
	Primary      string
	Recalculated string
	Workbook     string
}

// SaveRun writes <dir>/<name>.csv, <dir>/<name>_recalculated.csv and
// <dir>/<name>.xlsx, creating dir if needed.
func SaveRun(dir, name string, primary, recalculated []model.ClassifiedRecord) (Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("creating export dir: %w", err)
	}

	files := Files{
		Primary:  filepath.Join(dir, name+".csv"),
		Workbook: filepath.Join(dir, name+".xlsx"),
	}
	if err := writeFile(files.Primary, func(f *os.File) error { return WriteRecords(f, primary) }); err != nil {
		return Files{}, err
	}
	if recalculated != nil {
		files.Recalculated = filepath.Join(dir, name+"_recalculated.csv")
		if err := writeFile(files.Recalculated, func(f *os.File) error { return WriteRecords(f, recalculated) }); err != nil {
			return Files{}, err
		}
	}
	if err := writeFile(files.Workbook, func(f *os.File) error { return WriteWorkbook(f, primary, recalculated) }); err != nil {
		return Files{}, err
	}
	return files, nil
}

// ReadFile reads a results CSV from disk.
func ReadFile(path string) ([]model.ClassifiedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening results: %w", err)
	}
	defer f.Close()
	return ReadRecords(f)
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	return nil
}
