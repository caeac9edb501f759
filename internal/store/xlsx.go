package store

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/talentforge/resume-extractor/internal/llm"
)

// ExportXLSX renders the accumulated success rows as an XLSX workbook at
// path, same columns and order as the CSV. Optional convenience surface for
// spreadsheet users; the CSV stays the durable output.
func (s *ResultStore) ExportXLSX(path string) error {
	f := excelize.NewFile()
	const sheet = "Candidates"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	names := llm.FieldNames()
	for col, name := range names {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for rowIdx, rec := range s.rows {
		for col, name := range names {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, rec[name]); err != nil {
				return fmt.Errorf("write row %d: %w", rowIdx+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	s.log.Info("store.xlsx.exported", "path", path, "rows", len(s.rows))
	return nil
}
