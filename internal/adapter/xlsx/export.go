// Package xlsx exports dashboard tables as an Excel workbook.
package xlsx

import (
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/forest-climate-dashboard/internal/view"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultSheet = "Sheet1"

// Write writes one sheet per table, named after the table title, with a
// header row followed by the data rows.
func Write(w io.Writer, tables ...view.Table) error {
	if len(tables) == 0 {
		return errors.New("xlsx: no tables to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		sheet := sheetName(t.Title, i)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return fmt.Errorf("xlsx: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx: new sheet %q: %w", sheet, err)
		}
		if err := writeTable(f, sheet, t); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, t view.Table) error {
	for col, header := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("xlsx: set %s!%s: %w", sheet, cell, err)
		}
		if err := f.SetColWidth(sheet, colName(col), colName(col), 16); err != nil {
			return fmt.Errorf("xlsx: column width: %w", err)
		}
	}

	for row, values := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, row+2)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		out := make([]any, len(values))
		for i, v := range values {
			if v == "" {
				out[i] = view.Undefined
				continue
			}
			out[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &out); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", row+2, err)
		}
	}
	return nil
}

func sheetName(title string, i int) string {
	if title == "" {
		return fmt.Sprintf("Table %d", i+1)
	}
	return title
}

func colName(col int) string {
	name, _ := excelize.ColumnNumberToName(col + 1)
	return name
}
