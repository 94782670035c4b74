package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gestprev/backend/pkg/grid"
)

// GridRepository executes the composed grid queries against one table.
// The table and ID column are fixed at construction; request input never
// reaches an identifier position.
type GridRepository struct {
	db       *sql.DB
	composer *grid.Composer
	idColumn string
}

// NewGridRepository creates a GridRepository for the given table
func NewGridRepository(db *sql.DB, table, idColumn string) *GridRepository {
	return &GridRepository{
		db:       db,
		composer: grid.NewComposer(table),
		idColumn: idColumn,
	}
}

// Count returns the number of rows matching the WHERE fragment
func (r *GridRepository) Count(ctx context.Context, where string, args []interface{}) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, r.composer.CountSQL(where), args...).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Page returns one sorted page of matching rows. limit == grid.UnboundedLength
// fetches every matching row.
func (r *GridRepository) Page(ctx context.Context, where string, args []interface{}, orderColumn, orderDir string, limit, offset int) ([]grid.Row, error) {
	rows, err := r.db.QueryContext(ctx, r.composer.PageSQL(where, orderColumn, orderDir, limit, offset), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return grid.ScanRows(rows)
}

// Export returns all matching rows, unordered and unbounded
func (r *GridRepository) Export(ctx context.Context, where string, args []interface{}) ([]grid.Row, error) {
	rows, err := r.db.QueryContext(ctx, r.composer.ExportSQL(where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return grid.ScanRows(rows)
}

// Distinct returns the normalized distinct values of one column among matching
// rows, ascending, capped at grid.DistinctCap. NULLs are already filtered by
// the statement.
func (r *GridRepository) Distinct(ctx context.Context, column, where string, args []interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, r.composer.DistinctSQL(column, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v.Valid {
			values = append(values, v.String)
		}
	}
	return values, rows.Err()
}

// CurrentValue reads one cell by row ID, stringified for the audit trail.
// found is false when the row does not exist. A NULL cell yields a nil value.
func (r *GridRepository) CurrentValue(ctx context.Context, tx *sql.Tx, pk, column string) (value *string, found bool, err error) {
	query := fmt.Sprintf("SELECT `%s` FROM `%s` WHERE `%s` = ?", column, r.composer.Table, r.idColumn)

	var raw interface{}
	err = executor(r.db, tx).QueryRowContext(ctx, query, pk).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if raw == nil {
		return nil, true, nil
	}
	s := stringifyCell(raw)
	return &s, true, nil
}

// UpdateCell writes one cell by row ID and reports how many rows changed
func (r *GridRepository) UpdateCell(ctx context.Context, tx *sql.Tx, pk, column string, value interface{}) (int64, error) {
	query := fmt.Sprintf("UPDATE `%s` SET `%s` = ? WHERE `%s` = ?", r.composer.Table, column, r.idColumn)

	res, err := executor(r.db, tx).ExecContext(ctx, query, value, pk)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// unrepresentablePlaceholder stands in for cell values that cannot be
// rendered as text, so a single odd value never blocks an audited update
const unrepresentablePlaceholder = "[valore non rappresentabile]"

func stringifyCell(v interface{}) string {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		s := fmt.Sprintf("%v", t)
		if s == "" {
			return unrepresentablePlaceholder
		}
		return s
	}
}
