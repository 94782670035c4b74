package grid

import (
	"fmt"
	"sort"
	"strings"
)

// BuildWhere turns a FilterSpec into a parameterized WHERE fragment plus its
// bind arguments, validated against the catalog. The fragment is empty when no
// filter is active; otherwise it starts with " WHERE ". Identifiers come only
// from the catalog or the configured month column; every value under user
// control is bound, never concatenated.
func BuildWhere(catalog ColumnCatalog, monthColumn string, spec FilterSpec) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if spec.HasMonth() {
		clauses = append(clauses, fmt.Sprintf("UPPER(TRIM(`%s`)) = ?", monthColumn))
		args = append(args, spec.NormalizedMonth())
	}

	if spec.GlobalSearch != "" {
		needle := "%" + strings.ToUpper(spec.GlobalSearch) + "%"
		parts := make([]string, 0, len(catalog))
		for _, col := range catalog {
			parts = append(parts, fmt.Sprintf("UPPER(TRIM(CAST(`%s` AS CHAR))) LIKE ?", col))
			args = append(args, needle)
		}
		if len(parts) > 0 {
			clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
		}
	}

	if len(spec.ColumnSearches) > 0 {
		// Map iteration order is random; keep the generated SQL stable
		cols := make([]string, 0, len(spec.ColumnSearches))
		for col := range spec.ColumnSearches {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		for _, col := range cols {
			term := spec.ColumnSearches[col]
			// Unknown columns are silently ignored so clients may send a
			// superset of fields
			if !catalog.Contains(col) || term.Value == "" {
				continue
			}

			if term.IsExact() {
				clauses = append(clauses, fmt.Sprintf("UPPER(TRIM(CAST(`%s` AS CHAR))) = ?", col))
				args = append(args, strings.ToUpper(strings.TrimSpace(term.ExactValue())))
			} else {
				clauses = append(clauses, fmt.Sprintf("UPPER(TRIM(CAST(`%s` AS CHAR))) LIKE ?", col))
				args = append(args, "%"+strings.ToUpper(term.Value)+"%")
			}
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
