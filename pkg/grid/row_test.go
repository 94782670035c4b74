package grid

import (
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowMarshalJSONPreservesColumnOrder(t *testing.T) {
	row := NewRow([]string{"Zeta", "Alfa", "Media"}, map[string]interface{}{
		"Zeta":  "z",
		"Alfa":  1,
		"Media": nil,
	})

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"Zeta":"z","Alfa":1,"Media":null}`, string(data))
}

func TestScanRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"ID", "Cliente"}).
			AddRow([]byte("1"), []byte("ROSSI")).
			AddRow(int64(2), nil))

	rows, err := db.Query("SELECT * FROM t")
	require.NoError(t, err)
	defer rows.Close()

	result, err := ScanRows(rows)
	require.NoError(t, err)
	require.Len(t, result, 2)

	// []byte values come back as string
	assert.Equal(t, "1", result[0].Value("ID"))
	assert.Equal(t, "ROSSI", result[0].Value("Cliente"))
	assert.Equal(t, int64(2), result[1].Value("ID"))
	assert.Nil(t, result[1].Value("Cliente"))
	assert.Equal(t, []string{"ID", "Cliente"}, result[0].Columns())
}

func TestCatalogByIndex(t *testing.T) {
	c := ColumnCatalog{"A", "B", "C"}
	assert.Equal(t, "B", c.ByIndex(1))
	assert.Equal(t, "A", c.ByIndex(-1))
	assert.Equal(t, "A", c.ByIndex(3))
	assert.Equal(t, "", ColumnCatalog{}.ByIndex(0))
}
