package grid

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Grid"

// ReadXLSX reads a price list laid out as a spreadsheet: row 1 holds the widths (A1 may name
// the unit), column A holds the drops, and the body holds prices. The cells come back as a
// string-typed {widthColumns, dropRows} payload for Normalize.
func ReadXLSX(r io.Reader, sheet string) (map[string]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return nil, fmt.Errorf("sheet %q needs a header row of widths and at least one drop row", sheet)
	}

	header := rows[0]
	widths := make([]any, 0, len(header)-1)
	for _, cell := range header[1:] {
		widths = append(widths, strings.TrimSpace(cell))
	}

	dropRows := make([]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		prices := make([]any, len(widths))
		for i := range prices {
			prices[i] = ""
			if i+1 < len(row) {
				prices[i] = strings.TrimSpace(row[i+1])
			}
		}
		dropRows = append(dropRows, map[string]any{
			"drop":   strings.TrimSpace(row[0]),
			"prices": prices,
		})
	}

	payload := map[string]any{
		"widthColumns": widths,
		"dropRows":     dropRows,
	}
	if unit := Unit(strings.ToLower(strings.TrimSpace(header[0]))); unit.Valid() {
		payload["unit"] = string(unit)
	}
	return payload, nil
}

// WriteXLSX writes g in the layout ReadXLSX expects.
func WriteXLSX(w io.Writer, g *StandardGrid) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	set := func(col, row int, value any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(xlsxSheet, cell, value)
	}

	if err := set(1, 1, string(g.Unit)); err != nil {
		return fmt.Errorf("write unit: %w", err)
	}
	for i, width := range g.WidthColumns {
		if err := set(i+2, 1, width); err != nil {
			return fmt.Errorf("write width %d: %w", i, err)
		}
	}
	for r, row := range g.DropRows {
		if err := set(1, r+2, row.Drop); err != nil {
			return fmt.Errorf("write drop %d: %w", r, err)
		}
		for c, price := range row.Prices {
			if err := set(c+2, r+2, price); err != nil {
				return fmt.Errorf("write price %d/%d: %w", r, c, err)
			}
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastCol, _ := excelize.CoordinatesToCellName(len(g.WidthColumns)+1, 1)
		lastRow, _ := excelize.CoordinatesToCellName(1, len(g.DropRows)+1)
		_ = f.SetCellStyle(xlsxSheet, "A1", lastCol, style)
		_ = f.SetCellStyle(xlsxSheet, "A1", lastRow, style)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
