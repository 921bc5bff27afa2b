package fetcher

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets ...sheetData) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

type sheetData struct {
	name string
	rows [][]string
}

func TestReadXLSX_FirstSheet(t *testing.T) {
	data := createTestXLSX(t,
		sheetData{"Firms", [][]string{
			{"firm", "equity_value"},
			{"FirmA", "100"},
			{"FirmB", "200"},
		}},
		sheetData{"Notes", [][]string{{"ignored"}}},
	)

	table, err := ReadXLSX(data, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"firm", "equity_value"}, table.Header)
	assert.Equal(t, [][]string{{"FirmA", "100"}, {"FirmB", "200"}}, table.Rows)
}

func TestReadXLSX_SheetSelection(t *testing.T) {
	data := createTestXLSX(t,
		sheetData{"Cover", [][]string{{"title"}}},
		sheetData{"Data", [][]string{{"id"}, {"X"}}},
	)

	byName, err := ReadXLSX(data, XLSXOptions{SheetName: "Data"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"X"}}, byName.Rows)

	byIndex, err := ReadXLSX(data, XLSXOptions{SheetIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, byName, byIndex)

	_, err = ReadXLSX(data, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)

	_, err = ReadXLSX(data, XLSXOptions{SheetIndex: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSX_EmptySheet(t *testing.T) {
	data := createTestXLSX(t, sheetData{"Empty", nil})
	_, err := ReadXLSX(data, XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := ReadXLSX([]byte("firm,equity\n"), XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open workbook")
}

func TestReadXLSXFile(t *testing.T) {
	data := createTestXLSX(t, sheetData{"Sheet1", [][]string{{"a", "b"}, {"1", "2"}}})
	path := filepath.Join(t.TempDir(), "firms.xlsx")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	table, err := ReadXLSXFile(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "2"}}, table.Rows)

	_, err = ReadXLSXFile(filepath.Join(t.TempDir(), "missing.xlsx"), XLSXOptions{})
	require.Error(t, err)
}
