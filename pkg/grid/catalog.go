package grid

import "context"

// ColumnCatalog is the ordered list of a table's column names, obtained by
// live schema introspection. Every field name referenced in a filter, sort or
// update request must be a member of this set or the reference is dropped
// (filter/sort) or rejected (update).
type ColumnCatalog []string

// Contains reports whether name is a member of the catalog
func (c ColumnCatalog) Contains(name string) bool {
	for _, col := range c {
		if col == name {
			return true
		}
	}
	return false
}

// ByIndex resolves a positional column index from the grid protocol to a
// column name. Out-of-range indices fall back to the first column.
func (c ColumnCatalog) ByIndex(i int) string {
	if len(c) == 0 {
		return ""
	}
	if i < 0 || i >= len(c) {
		return c[0]
	}
	return c[i]
}

// SchemaReader is the schema-metadata port. Implementations query the live
// database; an empty catalog means the table is unusable (missing table or
// dead connection), never "table with zero columns".
type SchemaReader interface {
	Columns(ctx context.Context, table string) (ColumnCatalog, error)
}
