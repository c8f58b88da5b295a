package export

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	minColumnWidth = 10
	maxColumnWidth = 50
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Column struct {
	Header string
	Width  float64
}

// Table is a single worksheet. Each row must have one value per column.
type Table struct {
	Sheet   string
	Columns []Column
	Rows    [][]interface{}
}

// XLSX renders t as a workbook with a styled header row.
func XLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return nil, err
		}
		widths[i] = utf8.RuneCountInString(col.Header)
	}

	for r, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", r, len(row), len(t.Columns))
		}
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
			if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[c] {
				widths[c] = n
			}
		}
	}

	if len(t.Columns) > 0 {
		if err := styleCells(f, sheet, len(t.Columns), len(t.Rows)); err != nil {
			return nil, err
		}
	}

	for i, col := range t.Columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		w := float64(widths[i] + 5)
		if col.Width > w {
			w = col.Width
		}
		w = clamp(w, minColumnWidth, maxColumnWidth)
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func styleCells(f *excelize.File, sheet string, cols, rows int) error {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4F81BD"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return err
	}
	body, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return err
	}

	last, _ := excelize.CoordinatesToCellName(cols, 1)
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, 25); err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}
	last, _ = excelize.CoordinatesToCellName(cols, rows+1)
	return f.SetCellStyle(sheet, "A2", last, body)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// XLSXExporter renders tables as Excel workbooks.
type XLSXExporter struct{}

func (XLSXExporter) Export(t Table) ([]byte, error) {
	return XLSX(t)
}
