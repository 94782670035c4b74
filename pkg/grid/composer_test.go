package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountSQL(t *testing.T) {
	c := NewComposer("servizi")
	assert.Equal(t, "SELECT COUNT(*) FROM `servizi`", c.CountSQL(""))
	assert.Equal(t, "SELECT COUNT(*) FROM `servizi` WHERE `a` = ?", c.CountSQL(" WHERE `a` = ?"))
}

func TestPageSQL(t *testing.T) {
	c := NewComposer("servizi")
	assert.Equal(t,
		"SELECT * FROM `servizi` ORDER BY `ID` ASC LIMIT 10 OFFSET 20",
		c.PageSQL("", "ID", "asc", 10, 20))
	assert.Equal(t,
		"SELECT * FROM `servizi` WHERE x ORDER BY `Cliente` DESC LIMIT 25 OFFSET 0",
		c.PageSQL(" WHERE x", "Cliente", "DESC", 25, 0))
}

func TestPageSQLUnbounded(t *testing.T) {
	c := NewComposer("servizi")
	// The unbounded sentinel drops LIMIT/OFFSET but keeps the ordering
	assert.Equal(t,
		"SELECT * FROM `servizi` ORDER BY `ID` ASC",
		c.PageSQL("", "ID", "asc", UnboundedLength, 50))
}

func TestExportSQL(t *testing.T) {
	c := NewComposer("servizi")
	assert.Equal(t, "SELECT * FROM `servizi` WHERE x", c.ExportSQL(" WHERE x"))
}

func TestDistinctSQL(t *testing.T) {
	c := NewComposer("servizi")
	assert.Equal(t,
		"SELECT DISTINCT CASE WHEN `Cliente` IS NULL THEN NULL WHEN `Cliente` = '' THEN NULL "+
			"ELSE UPPER(TRIM(CAST(`Cliente` AS CHAR))) END AS value FROM `servizi` "+
			"HAVING value IS NOT NULL ORDER BY value LIMIT 200",
		c.DistinctSQL("Cliente", ""))
}

func TestNormalizeDirection(t *testing.T) {
	assert.Equal(t, "ASC", NormalizeDirection(""))
	assert.Equal(t, "ASC", NormalizeDirection("asc"))
	assert.Equal(t, "DESC", NormalizeDirection("desc"))
	assert.Equal(t, "DESC", NormalizeDirection(" DeSc "))
	assert.Equal(t, "ASC", NormalizeDirection("drop table"), "anything unrecognized falls back to ASC")
}
