package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/gestprev/backend/internal/infrastructure/persistence"
	apperrors "github.com/gestprev/backend/pkg/errors"
	"github.com/gestprev/backend/pkg/grid"
)

// GridConfig fixes the engine to one table. All identifiers here are
// server-side constants; request input never becomes an identifier.
type GridConfig struct {
	Table       string
	MonthColumn string
	IDColumn    string
}

// DefaultGridConfig points the engine at the service-accounting table
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Table:       "carrefour_contabilizzazione_originale",
		MonthColumn: "MesePresentazione",
		IDColumn:    "ID",
	}
}

// ListingRequest is the decoded grid-protocol request: pagination window,
// one sort directive (positional column index), and the filter terms.
// ColumnSearches is index-aligned with the grid's column list, which follows
// the live ColumnCatalog order.
type ListingRequest struct {
	Draw           int
	Start          int
	Length         int
	GlobalSearch   string
	OrderColumn    int
	OrderDir       string
	MonthFilter    string
	RTCFilter      string
	ColumnSearches []grid.SearchTerm
}

// rtcColumn is the column the dedicated RTC filter folds into as an exact term
const rtcColumn = "RTC"

// ListingResult is the grid-protocol response. Internal failures never
// surface as errors: they produce zero counts, no rows and a diagnostic in
// Error so the grid can render a failure row.
type ListingResult struct {
	Draw            int        `json:"draw"`
	RecordsTotal    int64      `json:"recordsTotal"`
	RecordsFiltered int64      `json:"recordsFiltered"`
	Data            []grid.Row `json:"data"`
	Error           string     `json:"error,omitempty"`
}

// GridRepository is the query-execution port of the engine
type GridRepository interface {
	Count(ctx context.Context, where string, args []interface{}) (int64, error)
	Page(ctx context.Context, where string, args []interface{}, orderColumn, orderDir string, limit, offset int) ([]grid.Row, error)
	Export(ctx context.Context, where string, args []interface{}) ([]grid.Row, error)
	Distinct(ctx context.Context, column, where string, args []interface{}) ([]string, error)
	CurrentValue(ctx context.Context, tx *sql.Tx, pk, column string) (*string, bool, error)
	UpdateCell(ctx context.Context, tx *sql.Tx, pk, column string, value interface{}) (int64, error)
}

// GridService orchestrates schema introspection, predicate building and query
// execution for the service-management grid: listing, export, distinct-value
// enumeration and audited cell updates.
type GridService struct {
	cfg    GridConfig
	schema grid.SchemaReader
	repo   GridRepository
	audit  AuditLog
	tm     Transactor
}

// AuditLog persists audit entries on the caller's transaction and reads
// them back for the administrator trail
type AuditLog interface {
	Insert(ctx context.Context, tx *sql.Tx, entry persistence.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]persistence.AuditEntry, error)
}

// Transactor runs a unit of work in one transaction
type Transactor interface {
	WithTransaction(fn func(tx *sql.Tx) error) error
}

// NewGridService creates a GridService
func NewGridService(cfg GridConfig, schema grid.SchemaReader, repo GridRepository, audit AuditLog, tm Transactor) *GridService {
	return &GridService{cfg: cfg, schema: schema, repo: repo, audit: audit, tm: tm}
}

// Columns returns the live column catalog of the grid's table
func (s *GridService) Columns(ctx context.Context) (grid.ColumnCatalog, error) {
	catalog, err := s.schema.Columns(ctx, s.cfg.Table)
	if err != nil {
		return nil, apperrors.NewInternalError("introspezione colonne", err)
	}
	return catalog, nil
}

// List answers one grid page request. Length grid.UnboundedLength returns
// every filtered row in sort order, ignoring Start.
func (s *GridService) List(ctx context.Context, req ListingRequest) ListingResult {
	fail := func(msg string) ListingResult {
		return ListingResult{Draw: req.Draw, Data: []grid.Row{}, Error: msg}
	}

	catalog, err := s.schema.Columns(ctx, s.cfg.Table)
	if err != nil {
		log.Printf("grid list: introspection failed: %v", err)
		return fail("Impossibile recuperare i nomi delle colonne.")
	}
	if len(catalog) == 0 {
		return fail("Impossibile recuperare i nomi delle colonne.")
	}

	orderColumn := catalog.ByIndex(req.OrderColumn)

	searches := s.resolveColumnSearches(catalog, req.ColumnSearches)
	if req.RTCFilter != "" {
		// The dedicated RTC picker filters exactly, overriding any free-text
		// term on the same column
		searches[rtcColumn] = grid.SearchTerm{Value: "^" + req.RTCFilter + "$", Regex: true}
	}

	spec := grid.FilterSpec{
		Month:          req.MonthFilter,
		GlobalSearch:   req.GlobalSearch,
		ColumnSearches: searches,
	}
	where, args := grid.BuildWhere(catalog, s.cfg.MonthColumn, spec)

	total, err := s.repo.Count(ctx, "", nil)
	if err != nil {
		log.Printf("grid list: total count failed: %v", err)
		return fail(fmt.Sprintf("Errore interno del server: %v", err))
	}

	filtered, err := s.repo.Count(ctx, where, args)
	if err != nil {
		log.Printf("grid list: filtered count failed: %v", err)
		return fail(fmt.Sprintf("Errore interno del server: %v", err))
	}

	rows, err := s.repo.Page(ctx, where, args, orderColumn, req.OrderDir, req.Length, req.Start)
	if err != nil {
		log.Printf("grid list: page query failed: %v", err)
		return fail(fmt.Sprintf("Errore interno del server: %v", err))
	}

	return ListingResult{
		Draw:            req.Draw,
		RecordsTotal:    total,
		RecordsFiltered: filtered,
		Data:            rows,
	}
}

// resolveColumnSearches substitutes catalog names for the grid's positional
// indices, dropping empty terms
func (s *GridService) resolveColumnSearches(catalog grid.ColumnCatalog, terms []grid.SearchTerm) map[string]grid.SearchTerm {
	resolved := make(map[string]grid.SearchTerm)
	for i, term := range terms {
		if i >= len(catalog) || term.Value == "" {
			continue
		}
		resolved[catalog[i]] = term
	}
	return resolved
}

// Export returns every row matching the filters, unbounded. A malformed
// column-filters payload degrades to "no per-column filters" instead of
// failing the export.
func (s *GridService) Export(ctx context.Context, month, globalSearch, columnFilters string) ([]grid.Row, error) {
	catalog, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, apperrors.NewInternalError("esportazione", fmt.Errorf("nessuna colonna per la tabella %s", s.cfg.Table))
	}

	terms, err := grid.ParseColumnFilters(columnFilters)
	if err != nil {
		log.Printf("grid export: malformed column filters ignored: %v", err)
		terms = nil
	}

	spec := grid.FilterSpec{Month: month, GlobalSearch: globalSearch, ColumnSearches: terms}
	where, args := grid.BuildWhere(catalog, s.cfg.MonthColumn, spec)

	rows, err := s.repo.Export(ctx, where, args)
	if err != nil {
		return nil, apperrors.NewInternalError("esportazione", err)
	}
	return rows, nil
}

// globalSearchKey is the pseudo-column carrying the global term inside the
// distinct-values filter blob
const globalSearchKey = "search"

// DistinctValues enumerates the values one column could take given every
// other active filter: the target column's own filter is excluded. A column
// outside the catalog is rejected; a malformed filters payload is rejected
// too (unlike Export, which swallows it).
func (s *GridService) DistinctValues(ctx context.Context, column, month, filters string) ([]string, error) {
	catalog, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}
	if !catalog.Contains(column) {
		return nil, apperrors.NewValidationError("column", fmt.Sprintf("colonna non valida: %s", column))
	}

	terms, err := grid.ParseColumnFilters(filters)
	if err != nil {
		return nil, apperrors.NewValidationError("filters", "formato filtri JSON non valido")
	}

	globalSearch := ""
	if t, ok := terms[globalSearchKey]; ok {
		globalSearch = t.Value
		delete(terms, globalSearchKey)
	}
	delete(terms, column)

	return s.distinct(ctx, catalog, column, month, globalSearch, terms)
}

// DistinctValuesForListing is the grid-protocol variant: the filters arrive
// in listing-request shape and the target column's own term is excluded
func (s *GridService) DistinctValuesForListing(ctx context.Context, column string, req ListingRequest) ([]string, error) {
	catalog, err := s.Columns(ctx)
	if err != nil {
		return nil, err
	}
	if !catalog.Contains(column) {
		return nil, apperrors.NewValidationError("column", fmt.Sprintf("colonna non valida: %s", column))
	}

	terms := s.resolveColumnSearches(catalog, req.ColumnSearches)
	delete(terms, column)

	return s.distinct(ctx, catalog, column, req.MonthFilter, req.GlobalSearch, terms)
}

func (s *GridService) distinct(ctx context.Context, catalog grid.ColumnCatalog, column, month, globalSearch string, terms map[string]grid.SearchTerm) ([]string, error) {
	spec := grid.FilterSpec{Month: month, GlobalSearch: globalSearch, ColumnSearches: terms}
	where, args := grid.BuildWhere(catalog, s.cfg.MonthColumn, spec)

	raw, err := s.repo.Distinct(ctx, column, where, args)
	if err != nil {
		return nil, apperrors.NewInternalError("valori unici", err)
	}

	// The statement already normalizes; trim and dedupe again to absorb
	// values the cast left with stray whitespace
	values := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

// AuditTrailDefaultLimit bounds the administrator audit view when the
// caller does not ask for a size
const AuditTrailDefaultLimit = 100

// AuditTrail returns the most recent audit entries, newest first
func (s *GridService) AuditTrail(ctx context.Context, limit int) ([]persistence.AuditEntry, error) {
	if limit <= 0 {
		limit = AuditTrailDefaultLimit
	}
	entries, err := s.audit.Recent(ctx, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("lettura log modifiche", err)
	}
	return entries, nil
}

// Update performs one audited cell edit. The current value is read first,
// then the update and its audit entry commit together or not at all: if the
// audit write fails, the cell change is rolled back too.
func (s *GridService) Update(ctx context.Context, pk, field string, value interface{}, actingUser string) error {
	if pk == "" || field == "" {
		return apperrors.NewValidationError("pk", "parametri 'pk' e 'field' sono obbligatori")
	}

	catalog, err := s.Columns(ctx)
	if err != nil {
		return err
	}
	if !catalog.Contains(field) {
		return apperrors.NewValidationError("field", fmt.Sprintf("campo '%s' non valido", field))
	}

	return s.tm.WithTransaction(func(tx *sql.Tx) error {
		oldValue, found, err := s.repo.CurrentValue(ctx, tx, pk, field)
		if err != nil {
			return apperrors.NewInternalError("lettura valore originale", err)
		}
		if !found {
			return apperrors.NewNotFoundError("record", pk)
		}

		affected, err := s.repo.UpdateCell(ctx, tx, pk, field, value)
		if err != nil {
			return apperrors.NewInternalError("aggiornamento record", err)
		}
		if affected == 0 {
			// The row vanished between the read and the write
			return apperrors.NewNotFoundError("record", pk)
		}

		entry := persistence.AuditEntry{
			Utente:    actingUser,
			CampoOld:  oldValue,
			CampoNew:  stringifyValue(value),
			Data:      time.Now().UTC(),
			IDTabella: pk,
			Colonna:   field,
		}
		if err := s.audit.Insert(ctx, tx, entry); err != nil {
			return apperrors.NewInternalError("scrittura log", err)
		}
		return nil
	})
}

// stringifyValue renders the incoming cell value for the audit trail;
// nil stays NULL
func stringifyValue(v interface{}) *string {
	if v == nil {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		// JSON numbers; keep integers without a trailing .0
		if t == float64(int64(t)) {
			s = fmt.Sprintf("%d", int64(t))
		} else {
			s = fmt.Sprintf("%v", t)
		}
	default:
		s = fmt.Sprintf("%v", t)
	}
	return &s
}
