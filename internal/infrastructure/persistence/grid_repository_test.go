package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGridRepo(t *testing.T) (*GridRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewGridRepository(db, "servizi", "ID"), mock
}

func TestGridRepositoryCount(t *testing.T) {
	repo, mock := newGridRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `servizi` WHERE x = ?")).
		WithArgs("v").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := repo.Count(context.Background(), " WHERE x = ?", []interface{}{"v"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGridRepositoryPage(t *testing.T) {
	repo, mock := newGridRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `servizi` ORDER BY `ID` ASC LIMIT 10 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"ID", "Cliente"}).AddRow("1", "ROSSI"))

	rows, err := repo.Page(context.Background(), "", nil, "ID", "asc", 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ROSSI", rows[0].Value("Cliente"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGridRepositoryDistinctSkipsNulls(t *testing.T) {
	repo, mock := newGridRepo(t)

	mock.ExpectQuery("SELECT DISTINCT CASE WHEN").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("A").AddRow(nil).AddRow("B"))

	values, err := repo.Distinct(context.Background(), "Cliente", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, values)
}

func TestGridRepositoryCurrentValue(t *testing.T) {
	repo, mock := newGridRepo(t)

	query := regexp.QuoteMeta("SELECT `Cliente` FROM `servizi` WHERE `ID` = ?")

	mock.ExpectQuery(query).WithArgs("5").
		WillReturnRows(sqlmock.NewRows([]string{"Cliente"}).AddRow([]byte("ROSSI")))
	value, found, err := repo.CurrentValue(context.Background(), nil, "5", "Cliente")
	require.NoError(t, err)
	assert.True(t, found)
	require.NotNil(t, value)
	assert.Equal(t, "ROSSI", *value)

	// NULL cell: found, nil value
	mock.ExpectQuery(query).WithArgs("6").
		WillReturnRows(sqlmock.NewRows([]string{"Cliente"}).AddRow(nil))
	value, found, err = repo.CurrentValue(context.Background(), nil, "6", "Cliente")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Nil(t, value)

	// Missing row: not found, no error
	mock.ExpectQuery(query).WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"Cliente"}))
	_, found, err = repo.CurrentValue(context.Background(), nil, "7", "Cliente")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGridRepositoryUpdateCell(t *testing.T) {
	repo, mock := newGridRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `servizi` SET `Cliente` = ? WHERE `ID` = ?")).
		WithArgs("BIANCHI", "5").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.UpdateCell(context.Background(), nil, "5", "Cliente", "BIANCHI")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStringifyCell(t *testing.T) {
	assert.Equal(t, "abc", stringifyCell([]byte("abc")))
	assert.Equal(t, "abc", stringifyCell("abc"))
	assert.Equal(t, "42", stringifyCell(int64(42)))
}
