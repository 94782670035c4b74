package bootstrap

import (
	"context"
	"log"

	"github.com/gestprev/backend/internal/infrastructure/database"
)

// systemTables are the tables the application owns. The business tables
// (carrefour_contabilizzazione_originale, zucchetti_articoli) are loaded by
// external imports and never created here.
var systemTables = []string{
	`CREATE TABLE IF NOT EXISTS utente_utenti (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		login VARCHAR(100) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		ruolo_id BIGINT NOT NULL DEFAULT 3,
		ultima_registrazione DATETIME NULL
	)`,
	`CREATE TABLE IF NOT EXISTS utente_ruoli_permessi (
		ruolo_id BIGINT PRIMARY KEY,
		colonne_ordini_servizio_ge TEXT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS utenti_chat (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		mittente VARCHAR(100) NOT NULL,
		destinatario VARCHAR(100) NULL,
		gruppo VARCHAR(100) NULL,
		tipo VARCHAR(20) NOT NULL,
		messaggio TEXT NOT NULL,
		data DATETIME NOT NULL,
		KEY idx_chat_tipo_data (tipo, data)
	)`,
	`CREATE TABLE IF NOT EXISTS carrefour_log (
		id INT AUTO_INCREMENT PRIMARY KEY,
		utente VARCHAR(50) NULL,
		campo_old VARCHAR(255) NULL,
		campo_new VARCHAR(255) NULL,
		data DATETIME NULL,
		id_tabella INT NULL,
		colonna VARCHAR(255) NULL,
		KEY idx_log_tabella (id_tabella)
	)`,
}

// InitializeSchema creates the application-owned tables
func InitializeSchema(db *database.Connection) error {
	log.Println("Initializing application schema...")

	ctx := context.Background()
	for _, ddl := range systemTables {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}

	log.Println("Application schema ready")
	return nil
}
