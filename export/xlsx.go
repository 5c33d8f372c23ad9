package export

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/tolisxo/gmaps-leads/models"
)

const (
	minColWidth = 10
	maxColWidth = 60
)

// WriteXLSX writes one sheet with a header row. Values are written as the
// same text the CSV carries. Column widths follow the longest value in
// each column.
func WriteXLSX(path string, records []models.BusinessRecord, order []string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	widths := make([]int, len(order))
	for i, h := range headers(order) {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		widths[i] = utf8.RuneCountInString(h)
	}

	for r, rec := range records {
		for c, v := range rec.Row(order) {
			if v == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			widths[c] = max(widths[c], utf8.RuneCountInString(v))
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(min(max(w+2, minColWidth), maxColWidth))
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// ReadXLSX loads a sheet written by WriteXLSX back into field maps. Cells
// missing from a row come back as empty strings.
func ReadXLSX(path string) ([]map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty sheet", path)
	}

	fields := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		fields[i] = fieldForTitle(h)
	}
	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]string, len(fields))
		for i, field := range fields {
			if i < len(row) {
				m[field] = row[i]
			} else {
				m[field] = ""
			}
		}
		out = append(out, m)
	}
	return out, nil
}
