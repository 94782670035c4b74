package persistence

import (
	"context"
	"database/sql"
	"time"
)

// ChatMessage is one row of utenti_chat
type ChatMessage struct {
	ID        int64
	Mittente  string
	Gruppo    *string
	Tipo      string
	Messaggio string
	Data      time.Time
}

// Message types
const (
	ChatPublic = "pubblico"
	ChatGroup  = "gruppo"
)

// ChatRepository stores and reads chat messages
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// PublicMessagesOn returns the public messages of one day, oldest first
func (r *ChatRepository) PublicMessagesOn(ctx context.Context, day time.Time) ([]ChatMessage, error) {
	query := "SELECT id, mittente, messaggio, data FROM utenti_chat " +
		"WHERE tipo = ? AND DATE(data) = ? ORDER BY data ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, ChatPublic, day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows, false)
}

// GroupMessagesOn returns one day's group messages. An empty group lists all
// groups (administrator view); otherwise only the named group's messages.
func (r *ChatRepository) GroupMessagesOn(ctx context.Context, day time.Time, group string) ([]ChatMessage, error) {
	day8 := day.Format("2006-01-02")

	if group == "" {
		query := "SELECT id, mittente, gruppo, messaggio, data FROM utenti_chat " +
			"WHERE tipo = ? AND DATE(data) = ? ORDER BY data ASC"
		rows, err := r.db.QueryContext(ctx, query, ChatGroup, day8)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanMessages(rows, true)
	}

	query := "SELECT id, mittente, gruppo, messaggio, data FROM utenti_chat " +
		"WHERE tipo = ? AND gruppo = ? AND DATE(data) = ? ORDER BY data ASC"
	rows, err := r.db.QueryContext(ctx, query, ChatGroup, group, day8)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows, true)
}

// InsertPublic stores a public message
func (r *ChatRepository) InsertPublic(ctx context.Context, sender, message string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO utenti_chat (mittente, tipo, messaggio, data) VALUES (?, ?, ?, ?)",
		sender, ChatPublic, message, time.Now())
	return err
}

// InsertGroup stores a group message
func (r *ChatRepository) InsertGroup(ctx context.Context, sender, group, message string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO utenti_chat (mittente, destinatario, gruppo, tipo, messaggio, data) VALUES (?, NULL, ?, ?, ?, ?)",
		sender, group, ChatGroup, message, time.Now())
	return err
}

// DeleteOwn deletes a message only when sender wrote it; reports whether a
// row was removed
func (r *ChatRepository) DeleteOwn(ctx context.Context, id int64, sender string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM utenti_chat WHERE id = ? AND mittente = ?", id, sender)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteOlderThan removes messages before the cutoff; used by the cleanup job
func (r *ChatRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM utenti_chat WHERE data < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanMessages(rows *sql.Rows, withGroup bool) ([]ChatMessage, error) {
	messages := make([]ChatMessage, 0)
	for rows.Next() {
		var m ChatMessage
		var err error
		if withGroup {
			var g sql.NullString
			err = rows.Scan(&m.ID, &m.Mittente, &g, &m.Messaggio, &m.Data)
			if g.Valid {
				m.Gruppo = &g.String
			}
		} else {
			err = rows.Scan(&m.ID, &m.Mittente, &m.Messaggio, &m.Data)
		}
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
