package persistence

import (
	"context"
	"database/sql"

	"github.com/gestprev/backend/pkg/grid"
)

// SchemaRepository reads live table metadata. It implements grid.SchemaReader.
type SchemaRepository struct {
	db *sql.DB
}

// NewSchemaRepository creates a new SchemaRepository
func NewSchemaRepository(db *sql.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

const columnsQuery = "SELECT column_name FROM information_schema.columns " +
	"WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position"

// Columns returns the ordered column names of a table, reflected from the
// live schema on every call. A table that does not exist yields an empty
// catalog; callers treat that as "cannot proceed".
func (r *SchemaRepository) Columns(ctx context.Context, table string) (grid.ColumnCatalog, error) {
	rows, err := r.db.QueryContext(ctx, columnsQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	catalog := make(grid.ColumnCatalog, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		catalog = append(catalog, name)
	}
	return catalog, rows.Err()
}
