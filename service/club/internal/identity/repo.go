package identity

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"RunClubHub/service/club/internal/db"
	"github.com/google/uuid"
)

// UserStore persiste gli utenti con l'hash della password.
type UserStore interface {
	CreateUser(ctx context.Context, id uuid.UUID, email, passwordHash string) error
	UserByEmail(ctx context.Context, email string) (User, string, error)
	UserByID(ctx context.Context, id uuid.UUID) (User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Repo implementa UserStore su Postgres (tabella auth_users).
type Repo struct {
	db *sql.DB
}

// NewRepo collega il repository a una connessione SQL.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// CreateUser inserisce l'utente; l'email duplicata diventa ErrEmailTaken.
func (r *Repo) CreateUser(ctx context.Context, id uuid.UUID, email, passwordHash string) error {
	const query = `
INSERT INTO auth_users (id, email, password_hash, created_at)
VALUES ($1, $2, $3, now())`

	_, err := r.db.ExecContext(ctx, query, id, email, passwordHash)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		slog.Error("errore insert utente", "error", err)
	}
	return err
}

// UserByEmail ritorna utente, ruolo (se il profilo esiste) e hash della password.
func (r *Repo) UserByEmail(ctx context.Context, email string) (User, string, error) {
	const query = `
SELECT u.id, u.email, COALESCE(p.role, ''), u.password_hash
FROM auth_users u
LEFT JOIN profiles p ON p.id = u.id
WHERE u.email = $1`

	var (
		u    User
		hash string
	)
	err := r.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &u.Role, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, "", ErrUserNotFound
	}
	if err != nil {
		slog.Error("errore lettura utente", "error", err)
		return User{}, "", err
	}
	return u, hash, nil
}

// UserByID ritorna l'utente con il ruolo corrente.
func (r *Repo) UserByID(ctx context.Context, id uuid.UUID) (User, error) {
	const query = `
SELECT u.id, u.email, COALESCE(p.role, '')
FROM auth_users u
LEFT JOIN profiles p ON p.id = u.id
WHERE u.id = $1`

	var u User
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		slog.Error("errore lettura utente", "error", err, "user_id", id)
		return User{}, err
	}
	return u, nil
}

// DeleteUser rimuove l'utente (profilo e abbonamento in cascata).
func (r *Repo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_users WHERE id = $1`, id); err != nil {
		slog.Error("errore delete utente", "error", err, "user_id", id)
		return err
	}
	return nil
}
