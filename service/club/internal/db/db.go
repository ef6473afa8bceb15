package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// uniqueViolation e' il codice Postgres per una UNIQUE violata.
const uniqueViolation = "23505"

// Open crea la connessione Postgres e la valida con un ping.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		slog.Error("DB_DSN mancante")
		return nil, errors.New("DB_DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// Fallisce subito se il database non è raggiungibile.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		slog.Error("ping database fallito", "error", err)
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// ExecFile esegue uno script SQL in un'unica transazione.
func ExecFile(ctx context.Context, db *sql.DB, script string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// IsUniqueViolation riconosce l'errore Postgres 23505 (unique_violation).
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
