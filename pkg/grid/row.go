package grid

import (
	"bytes"
	"database/sql"
	"encoding/json"
)

// Row is one materialized result row: a column→value mapping that preserves
// the result set's column order, both for iteration and for JSON encoding.
type Row struct {
	columns []string
	values  map[string]interface{}
}

// Columns returns the row's column names in result-set order
func (r Row) Columns() []string {
	return r.columns
}

// Value returns the value stored under the column name
func (r Row) Value(column string) interface{} {
	return r.values[column]
}

// MarshalJSON encodes the row as a JSON object with keys in column order
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ScanRows materializes all rows of a result set. MySQL returns most values
// as []byte; those are converted to string so they serialize and stringify
// predictably.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]Row, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := Row{columns: columns, values: make(map[string]interface{}, len(columns))}
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record.values[col] = string(b)
			} else {
				record.values[col] = values[i]
			}
		}
		results = append(results, record)
	}

	return results, rows.Err()
}

// NewRow builds a Row from ordered columns and values, for tests and for
// callers assembling rows outside a result set
func NewRow(columns []string, values map[string]interface{}) Row {
	return Row{columns: columns, values: values}
}
