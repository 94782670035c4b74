package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestprev/backend/pkg/grid"
)

func TestWorkbookLayout(t *testing.T) {
	rows := []grid.Row{
		grid.NewRow([]string{"ID", "Cliente"}, map[string]interface{}{"ID": "1", "Cliente": "ROSSI"}),
		grid.NewRow([]string{"ID", "Cliente"}, map[string]interface{}{"ID": "2", "Cliente": nil}),
	}

	f, err := Workbook(rows, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "Dati", f.GetSheetName(0))

	header, err := f.GetCellValue("Dati", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Cliente", header)

	cell, err := f.GetCellValue("Dati", "B2")
	require.NoError(t, err)
	assert.Equal(t, "ROSSI", cell)

	empty, err := f.GetCellValue("Dati", "B3")
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}

func TestWorkbookEmpty(t *testing.T) {
	f, err := Workbook(nil, Options{Sheet: "Vuoto"})
	require.NoError(t, err)
	assert.Equal(t, "Vuoto", f.GetSheetName(0))
}
