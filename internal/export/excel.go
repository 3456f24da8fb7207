// internal/export/excel.go
package export

import (
	"io"
	"iter"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by the xlsx format.
const SheetName = "emails"

// writeXLSX streams emails into a single-column workbook with a bold header.
func writeXLSX(w io.Writer, emails iter.Seq[string]) (err error) {
	file := excelize.NewFile()
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	// NewFile creates "Sheet1"; rename it rather than adding a second sheet.
	if err := file.SetSheetName(file.GetSheetName(0), SheetName); err != nil {
		return err
	}

	sw, err := file.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E0E0E0"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}

	if err := sw.SetColWidth(1, 1, 40); err != nil {
		return err
	}
	if err := sw.SetRow("A1", []any{excelize.Cell{StyleID: headerStyle, Value: "email"}}); err != nil {
		return err
	}

	row := 2
	for e := range emails {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []any{e}); err != nil {
			return err
		}
		row++
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = file.WriteTo(w)
	return err
}
