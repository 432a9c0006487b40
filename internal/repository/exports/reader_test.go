package exports

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	file := excelize.NewFile()
	sheet := file.GetSheetName(0)
	for i, cells := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, file.SetSheetRow(sheet, addr, &cells))
	}
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, file.SaveAs(path))
	require.NoError(t, file.Close())
	return path
}

func TestReadRows_HeaderKeyedRows(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Item", "SKU", "Price"},
		{"Widget", "10001", "$1,250.00"},
		{"Gadget", "10002", "3.50"},
	})

	reader := NewReader(nil)
	rows, err := reader.ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Widget", rows[0].String("Item"))
	assert.Equal(t, "10001", rows[0].String("SKU"))
	assert.InDelta(t, 1250.0, rows[0].Float("Price"), 0.001)
	assert.InDelta(t, 3.5, rows[1].Float("Price"), 0.001)
}

func TestReadRows_DropsEmptyRows(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Item", "SKU"},
		{"Widget", "10001"},
		{"", ""},
		{"Gadget", "10002"},
	})

	reader := NewReader(nil)
	rows, err := reader.ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Gadget", rows[1].String("Item"))
}

func TestReadRows_HeaderOnly(t *testing.T) {
	path := writeWorkbook(t, [][]any{{"Item", "SKU"}})

	reader := NewReader(nil)
	rows, err := reader.ReadRows(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadRows_MissingFile(t *testing.T) {
	reader := NewReader(nil)
	_, err := reader.ReadRows(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

func TestReadRows_ShortRowsTolerated(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Item", "SKU", "Price"},
		{"Widget"},
	})

	reader := NewReader(nil)
	rows, err := reader.ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Widget", rows[0].String("Item"))
	assert.Equal(t, "", rows[0].String("SKU"))
}

func TestRowFloat(t *testing.T) {
	row := Row{"Total": "$4,500.25", "Blank": "", "Junk": "n/a"}
	assert.InDelta(t, 4500.25, row.Float("Total"), 0.001)
	assert.Zero(t, row.Float("Blank"))
	assert.Zero(t, row.Float("Junk"))
	assert.Zero(t, row.Float("Absent"))
}

func TestRowInt(t *testing.T) {
	row := Row{"Qty": "3.0", "Count": "12"}
	assert.Equal(t, 3, row.Int("Qty"))
	assert.Equal(t, 12, row.Int("Count"))
}

func TestRowPercent(t *testing.T) {
	row := Row{"A": "45%", "B": "45", "C": "0.45", "D": ""}
	assert.InDelta(t, 0.45, row.Percent("A"), 0.0001)
	assert.InDelta(t, 0.45, row.Percent("B"), 0.0001)
	assert.InDelta(t, 0.45, row.Percent("C"), 0.0001)
	assert.Zero(t, row.Percent("D"))
}
