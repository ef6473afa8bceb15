package identity

import "errors"

// Errori di dominio dell'identita', mappati nel layer HTTP.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrNoSession          = errors.New("session not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUserNotFound       = errors.New("user not found")
)
