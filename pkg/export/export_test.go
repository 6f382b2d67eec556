package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Math 31 roster",
		Headers: []string{"Student", "Student ID", "Enrolled At"},
		Rows: [][]string{
			{"Steve", "s-1", "2024-01-02T03:04:05Z"},
			{"Ann", "s-2"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Contains(t, f.ContentType(), "spreadsheetml")

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Student ID,Enrolled At", lines[0])
	assert.Equal(t, "Steve,s-1,2024-01-02T03:04:05Z", lines[1])
	assert.Equal(t, "Ann,s-2,", lines[2])
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Math 31 roster", f.GetSheetName(0))
	rows, err := f.GetRows("Math 31 roster")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Student", "Student ID", "Enrolled At"}, rows[0])
	assert.Equal(t, "Steve", rows[1][0])
}

func TestRenderRequiresHeaders(t *testing.T) {
	for format, renderer := range Renderers() {
		_, err := renderer.Render(Dataset{})
		assert.Error(t, err, string(format))
	}
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "ab", sheetName("a/b"))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), 31)
}
