package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// TopReport is one sheet of the spreadsheet report
type TopReport struct {
	Profile string
	Period  string
	Table   *table.Table
}

const maxSheetName = 31

// WriteTopReport writes one sheet per profile. Numeric cells stay numeric;
// null numbers are left blank.
func WriteTopReport(path string, reports []TopReport) error {
	if len(reports) == 0 {
		return errors.New("no reports to write")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	first := f.GetSheetName(0)
	for i, rep := range reports {
		sheet := sheetName(rep.Profile)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, rep.Table); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *table.Table) error {
	names := t.Columns()
	header := make([]interface{}, len(names))
	cols := make([]*table.Column, len(names))
	for i, n := range names {
		header[i] = n
		cols[i], _ = t.Column(n)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r := 0; r < t.Len(); r++ {
		row := make([]interface{}, len(cols))
		for i, c := range cols {
			switch c.Kind {
			case table.KindFloat:
				if v := c.Floats[r]; v.Valid {
					row[i] = v.V
				}
			case table.KindInt:
				row[i] = c.Ints[r]
			default:
				row[i] = c.Strings[r]
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// sheetName trims a profile name to the spreadsheet limit
func sheetName(profile string) string {
	r := []rune(profile)
	if len(r) > maxSheetName {
		r = r[:maxSheetName]
	}
	if len(r) == 0 {
		return "profile"
	}
	return string(r)
}
