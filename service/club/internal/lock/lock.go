package lock

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
)

// ErrMissingToken e' ritornato da Release senza chiave o token.
var ErrMissingToken = errors.New("key e token sono richiesti")

// Manager gestisce l'acquisizione e il rilascio di lock con scadenza.
// ok=false senza errore significa lock gia' preso da un altro owner.
type Manager interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

func newToken() string {
	return ulid.Make().String()
}
