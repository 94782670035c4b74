package grid

import (
	"fmt"
	"strings"
)

// UnboundedLength is the page-length sentinel meaning "all matching rows"
const UnboundedLength = -1

// DistinctCap bounds the distinct-value lookup. It is a performance bound for
// filter-picker population: callers must not treat 200 values as "all values".
const DistinctCap = 200

// Composer builds the SQL statement shapes the engine needs for one table.
// The table name is the server-configured constant for the instantiation,
// never request input; order columns must already be validated against the
// ColumnCatalog before they reach the composer.
type Composer struct {
	Table string
}

// NewComposer creates a Composer for the given table
func NewComposer(table string) *Composer {
	return &Composer{Table: table}
}

// CountSQL selects the number of rows matching the WHERE fragment
func (c *Composer) CountSQL(where string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM `%s`%s", c.Table, where)
}

// PageSQL selects one sorted page of all columns. A limit of UnboundedLength
// omits the LIMIT/OFFSET clause entirely; ordering is still applied.
func (c *Composer) PageSQL(where, orderColumn, orderDir string, limit, offset int) string {
	base := fmt.Sprintf("SELECT * FROM `%s`%s ORDER BY `%s` %s",
		c.Table, where, orderColumn, NormalizeDirection(orderDir))
	if limit == UnboundedLength {
		return base
	}
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", base, limit, offset)
}

// ExportSQL selects all columns of all matching rows, unordered and unbounded
func (c *Composer) ExportSQL(where string) string {
	return fmt.Sprintf("SELECT * FROM `%s`%s", c.Table, where)
}

// DistinctSQL selects the distinct non-null, non-empty, trimmed-and-uppercased
// values of one column among matching rows, ascending, capped at DistinctCap
func (c *Composer) DistinctSQL(column, where string) string {
	return fmt.Sprintf(
		"SELECT DISTINCT CASE WHEN `%s` IS NULL THEN NULL WHEN `%s` = '' THEN NULL "+
			"ELSE UPPER(TRIM(CAST(`%s` AS CHAR))) END AS value FROM `%s`%s "+
			"HAVING value IS NOT NULL ORDER BY value LIMIT %d",
		column, column, column, c.Table, where, DistinctCap)
}

// NormalizeDirection maps any input to exactly ASC or DESC
func NormalizeDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "desc") {
		return "DESC"
	}
	return "ASC"
}
