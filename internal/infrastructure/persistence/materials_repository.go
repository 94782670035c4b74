package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Article is one row of zucchetti_articoli
type Article struct {
	ID              string
	Codice          string
	CodiceNet       string
	Descrizione     string
	GiacenzaTorino  float64
	GiacenzaMilano  float64
	GiacenzaGenova  float64
	GiacenzaBologna float64
	GiacenzaRoma    float64
	Importo         float64
	Sconto          float64
}

// ArticleFilter is the materials search criteria. Empty fields do not filter;
// Year "all" (any case) means every year.
type ArticleFilter struct {
	Codice      string
	CodiceNet   string
	Descrizione string
	Year        string
}

// articleSortColumns maps the grid's positional sort indices to columns.
// Indices 0-1 are non-sortable display columns on the client.
var articleSortColumns = map[int]string{
	2:  "KACODRIC",
	3:  "ARCODART",
	4:  "ARDESART",
	5:  "GiacenzaTorino",
	6:  "GiacenzaMilano",
	7:  "GiacenzaGenova",
	8:  "GiacenzaBologna",
	9:  "GiacenzaRoma",
	10: "Importo",
}

// ArticleSort is one positional sort directive from the grid protocol
type ArticleSort struct {
	Column int
	Dir    string
}

// MaterialsRepository queries the fixed-schema materials inventory table
type MaterialsRepository struct {
	db *sql.DB
}

// NewMaterialsRepository creates a new MaterialsRepository
func NewMaterialsRepository(db *sql.DB) *MaterialsRepository {
	return &MaterialsRepository{db: db}
}

const articleSelect = "SELECT KAIDGUID, COALESCE(KACODRIC, ''), COALESCE(ARCODART, ''), COALESCE(ARDESART, ''), " +
	"COALESCE(GiacenzaTorino, 0), COALESCE(GiacenzaMilano, 0), COALESCE(GiacenzaGenova, 0), " +
	"COALESCE(GiacenzaBologna, 0), COALESCE(GiacenzaRoma, 0), COALESCE(Importo, 0), COALESCE(Sconto, 0) " +
	"FROM zucchetti_articoli"

func buildArticleWhere(f ArticleFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.Year != "" && !strings.EqualFold(f.Year, "all") {
		clauses = append(clauses, "YEAR(DataAcquisto) = ?")
		args = append(args, f.Year)
	}
	if f.Codice != "" {
		clauses = append(clauses, "KACODRIC LIKE ?")
		args = append(args, "%"+f.Codice+"%")
	}
	if f.CodiceNet != "" {
		clauses = append(clauses, "ARCODART LIKE ?")
		args = append(args, "%"+f.CodiceNet+"%")
	}
	// Every word of the description must match somewhere in ARDESART
	for _, word := range strings.Fields(f.Descrizione) {
		clauses = append(clauses, "ARDESART LIKE ?")
		args = append(args, "%"+word+"%")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func buildArticleOrder(sorts []ArticleSort) string {
	var parts []string
	for _, s := range sorts {
		col, ok := articleSortColumns[s.Column]
		if !ok {
			continue
		}
		dir := "ASC"
		if strings.EqualFold(s.Dir, "desc") {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s", col, dir))
	}
	if len(parts) == 0 {
		// Default: highest stock first across every branch
		return " ORDER BY GiacenzaTorino DESC, GiacenzaMilano DESC, GiacenzaGenova DESC, GiacenzaBologna DESC, GiacenzaRoma DESC"
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// CountAll returns the grand total of articles
func (r *MaterialsRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM zucchetti_articoli").Scan(&n)
	return n, err
}

// CountFiltered returns the number of articles matching the filter
func (r *MaterialsRepository) CountFiltered(ctx context.Context, f ArticleFilter) (int64, error) {
	where, args := buildArticleWhere(f)
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM zucchetti_articoli"+where, args...).Scan(&n)
	return n, err
}

// Search returns one page of matching articles. limit < 0 fetches all.
func (r *MaterialsRepository) Search(ctx context.Context, f ArticleFilter, sorts []ArticleSort, offset, limit int) ([]Article, error) {
	where, args := buildArticleWhere(f)
	query := articleSelect + where + buildArticleOrder(sorts)
	if limit >= 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := make([]Article, 0)
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Codice, &a.CodiceNet, &a.Descrizione,
			&a.GiacenzaTorino, &a.GiacenzaMilano, &a.GiacenzaGenova,
			&a.GiacenzaBologna, &a.GiacenzaRoma, &a.Importo, &a.Sconto); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
