package persistence

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// User is one row of utente_utenti
type User struct {
	ID                  int64
	Login               string
	Password            string
	RoleID              int64
	UltimaRegistrazione *time.Time
}

// UserRepository reads users, roles, and the per-role column permission
// overlay, and tracks presence via ultima_registrazione
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByLogin returns a user by login, or nil when absent
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*User, error) {
	query := "SELECT id, login, password, ruolo_id, ultima_registrazione FROM utente_utenti WHERE login = ?"

	var u User
	var lastSeen sql.NullTime
	err := r.db.QueryRowContext(ctx, query, login).Scan(&u.ID, &u.Login, &u.Password, &u.RoleID, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		u.UltimaRegistrazione = &lastSeen.Time
	}
	return &u, nil
}

// TouchLastSeen stamps the user's presence timestamp
func (r *UserRepository) TouchLastSeen(ctx context.Context, login string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE utente_utenti SET ultima_registrazione = ? WHERE login = ?",
		time.Now(), login)
	return err
}

// OnlineSince lists logins whose presence timestamp is at or after the cutoff
func (r *UserRepository) OnlineSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := "SELECT login FROM utente_utenti WHERE ultima_registrazione IS NOT NULL " +
		"AND ultima_registrazione >= ? ORDER BY login"

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logins := make([]string, 0)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		logins = append(logins, l)
	}
	return logins, rows.Err()
}

// ClearStalePresence blanks presence timestamps older than the cutoff, so a
// crashed client does not linger in the online list
func (r *UserRepository) ClearStalePresence(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE utente_utenti SET ultima_registrazione = NULL WHERE ultima_registrazione < ?",
		cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HiddenColumns returns the set of grid columns hidden from a role, read from
// the comma-separated colonne_ordini_servizio_ge list. An unknown role hides
// nothing.
func (r *UserRepository) HiddenColumns(ctx context.Context, roleID int64) (map[string]bool, error) {
	query := "SELECT colonne_ordini_servizio_ge FROM utente_ruoli_permessi WHERE ruolo_id = ?"

	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, query, roleID).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}

	hidden := make(map[string]bool)
	if raw.Valid {
		for _, col := range strings.Split(raw.String, ",") {
			if c := strings.TrimSpace(col); c != "" {
				hidden[c] = true
			}
		}
	}
	return hidden, nil
}
