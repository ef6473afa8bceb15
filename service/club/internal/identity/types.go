package identity

import (
	"time"

	"RunClubHub/service/club/internal/club"
	"github.com/google/uuid"
)

// User e' l'utente autenticato.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  club.Role `json:"role,omitempty"`
}

// Session lega un token firmato a una riga della tabella sessioni.
type Session struct {
	ID          string    `json:"-"`
	AccessToken string    `json:"access_token"`
	User        User      `json:"user"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Credentials sono i campi del form di registrazione.
type Credentials struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	FullName string    `json:"full_name"`
	Role     club.Role `json:"role"`
}

// SignUpResult e' l'esito della registrazione con la pagina di destinazione.
type SignUpResult struct {
	Session  Session `json:"session"`
	Redirect string  `json:"redirect"`
}

// AuthEvent e' un cambio di stato della sessione.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventSessionExpired AuthEvent = "SESSION_EXPIRED"
)

// RedirectFor ritorna la pagina iniziale per il ruolo.
func RedirectFor(role club.Role) string {
	if role == club.RoleRunner {
		return "/explore"
	}
	return "/dashboard"
}
