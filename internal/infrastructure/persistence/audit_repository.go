package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AuditEntry is one immutable record of a cell-level change. Entries are
// written exactly once per successful update and never mutated here.
// ID is assigned by the database; it is zero on insert.
type AuditEntry struct {
	ID        int64
	Utente    string
	CampoOld  *string
	CampoNew  *string
	Data      time.Time
	IDTabella string
	Colonna   string
}

// AuditRepository persists audit log entries
type AuditRepository struct {
	db    *sql.DB
	table string
}

// NewAuditRepository creates an AuditRepository writing to the given table
func NewAuditRepository(db *sql.DB, table string) *AuditRepository {
	return &AuditRepository{db: db, table: table}
}

const auditInsertQuery = "INSERT INTO `%s` (utente, campo_old, campo_new, data, id_tabella, colonna) VALUES (?, ?, ?, ?, ?, ?)"

// Insert writes one audit entry. It runs on the caller's transaction so the
// entry commits together with the update it describes.
func (r *AuditRepository) Insert(ctx context.Context, tx *sql.Tx, entry AuditEntry) error {
	query := fmt.Sprintf(auditInsertQuery, r.table)
	_, err := executor(r.db, tx).ExecContext(ctx, query,
		entry.Utente, nullable(entry.CampoOld), nullable(entry.CampoNew),
		entry.Data, entry.IDTabella, entry.Colonna)
	return err
}

const auditSelectQuery = "SELECT id, utente, campo_old, campo_new, data, id_tabella, colonna " +
	"FROM `%s` ORDER BY data DESC, id DESC LIMIT ?"

// Recent returns the latest audit entries, newest first
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(auditSelectQuery, r.table), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0)
	for rows.Next() {
		var e AuditEntry
		var oldVal, newVal sql.NullString
		if err := rows.Scan(&e.ID, &e.Utente, &oldVal, &newVal, &e.Data, &e.IDTabella, &e.Colonna); err != nil {
			return nil, err
		}
		if oldVal.Valid {
			e.CampoOld = &oldVal.String
		}
		if newVal.Valid {
			e.CampoNew = &newVal.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
