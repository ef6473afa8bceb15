package feed

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// Tipi di evento del change feed, come emessi dai trigger Postgres.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	// EventResync segnala che alcuni eventi potrebbero essere andati persi
	// (es. riconnessione del listener): arriva a tutti i subscriber.
	EventResync EventType = "RESYNC"
	// EventAll come filtro accetta qualsiasi evento della tabella.
	EventAll EventType = "*"
)

// Event rappresenta una modifica a livello di riga su una tabella.
type Event struct {
	ID     ulid.ULID
	Table  string
	Type   EventType
	Record json.RawMessage
	At     time.Time
}

// Handler viene invocato per ogni evento che passa il filtro.
type Handler func(Event)

// Subscription e' il lease di una sottoscrizione.
// Unsubscribe e' idempotente: dopo il ritorno non partono nuove callback.
type Subscription interface {
	Unsubscribe()
}

// Subscriber apre sottoscrizioni per tabella.
type Subscriber interface {
	Subscribe(table string, filter EventType, handler Handler) (Subscription, error)
}

var (
	ErrClosed       = errors.New("feed closed")
	ErrInvalidTable = errors.New("table is required")
	ErrNilHandler   = errors.New("handler is required")
)

// NewEvent crea un evento con ID ordinabile e timestamp corrente.
func NewEvent(table string, typ EventType, record json.RawMessage) Event {
	now := time.Now().UTC()
	return Event{
		ID:     ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()),
		Table:  table,
		Type:   typ,
		Record: record,
		At:     now,
	}
}

func (f EventType) matches(ev EventType) bool {
	return f == EventAll || f == "" || f == ev || ev == EventResync
}
