package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// Chiavi condivise per passare l'identita' utente tra i layer del servizio.
type contextKey string

// ContextUserIDKey definisce la chiave per l'user_id nel context.
const ContextUserIDKey contextKey = "user_id"

// ContextRoleKey definisce la chiave per il ruolo dell'utente.
const ContextRoleKey contextKey = "role"

// ContextEmailKey definisce la chiave per l'email dell'utente.
const ContextEmailKey contextKey = "email"

// WithUser salva utente e ruolo nel context.
func WithUser(ctx context.Context, userID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, ContextUserIDKey, userID)
	return context.WithValue(ctx, ContextRoleKey, role)
}

// UserID ritorna l'utente autenticato, se presente.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ContextUserIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// Role ritorna il ruolo dell'utente autenticato.
func Role(ctx context.Context) string {
	role, _ := ctx.Value(ContextRoleKey).(string)
	return role
}

// WithEmail salva l'email dell'utente nel context.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ContextEmailKey, email)
}

// Email ritorna l'email dell'utente autenticato.
func Email(ctx context.Context) string {
	email, _ := ctx.Value(ContextEmailKey).(string)
	return email
}
