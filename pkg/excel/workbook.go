// Package excel renders exported grid rows as xlsx workbooks.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gestprev/backend/pkg/grid"
)

// Options controls workbook appearance
type Options struct {
	Sheet       string
	HeaderColor string
}

// DefaultOptions matches the service-management export styling
func DefaultOptions() Options {
	return Options{Sheet: "Dati", HeaderColor: "#F7DC6F"}
}

// Workbook builds an xlsx file from ordered rows. The header row is bold with
// a colored background and a thin border; column widths follow the longest
// cell value.
func Workbook(rows []grid.Row, opts Options) (*excelize.File, error) {
	if opts.Sheet == "" {
		opts.Sheet = "Dati"
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if sheet != opts.Sheet {
		if err := f.SetSheetName(sheet, opts.Sheet); err != nil {
			return nil, err
		}
		sheet = opts.Sheet
	}

	if len(rows) == 0 {
		return f, nil
	}

	columns := rows[0].Columns()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{opts.HeaderColor}},
		Border: []excelize.Border{
			{Type: "left", Style: 1, Color: "000000"},
			{Type: "right", Style: 1, Color: "000000"},
			{Type: "top", Style: 1, Color: "000000"},
			{Type: "bottom", Style: 1, Color: "000000"},
		},
	})
	if err != nil {
		return nil, err
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
		widths[i] = len(col)
	}

	for r, row := range rows {
		for i, col := range columns {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, err
			}
			val := row.Value(col)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, err
			}
			if l := len(stringify(val)); l > widths[i] {
				widths[i] = l
			}
		}
	}

	for i := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, float64(widths[i]+2)); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
