package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, name string, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(name)
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_Records(t *testing.T) {
	path := createTestXLSX(t, "Products", [][]string{
		{"Product_URL", "Rating_Score"},
		{"https://x/1", "4.5"},
		{"", ""},
		{"https://x/2", ""},
	})

	recs, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "4.5", recs[0]["Rating_Score"])
	assert.Equal(t, "https://x/2", recs[1]["Product_URL"])
}

func TestReadXLSX_SheetSelection(t *testing.T) {
	path := createTestXLSX(t, "Products", [][]string{{"a"}, {"1"}})

	recs, err := ReadXLSX(path, XLSXOptions{SheetName: "Products"})
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	assert.ErrorContains(t, err, `sheet "Missing" not found`)

	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	assert.ErrorContains(t, err, "out of range")
}

func TestReadXLSX_MissingFile(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}
