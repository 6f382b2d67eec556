package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes headers on the first row and records below them. The sheet is named
// after the dataset title when one is set.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := defaultSheet
	if name := sheetName(data.Title); name != "" && name != defaultSheet {
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
		sheet = name
	}

	if err := f.SetSheetRow(sheet, "A1", &data.Headers); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}
	for i, row := range data.Rows {
		values := make([]interface{}, len(data.Headers))
		for col := range data.Headers {
			values[col] = cell(row, col)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, axis, &values); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetName trims title to the 31 characters Excel allows and drops forbidden runes.
func sheetName(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
		if len(out) == 31 {
			break
		}
	}
	return string(out)
}
