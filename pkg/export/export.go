package export

import (
	"fmt"
	"strings"
)

// Format identifies a rendered document type.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat normalises raw into a supported format. An empty value selects CSV.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatPDF, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Dataset defines tabular export content. Each row holds one cell per header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a dataset into document bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
}

// Renderers maps every supported format to its renderer.
func Renderers() map[Format]Renderer {
	return map[Format]Renderer{
		FormatCSV:  NewCSVExporter(),
		FormatPDF:  NewPDFExporter(),
		FormatXLSX: NewXLSXExporter(),
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
