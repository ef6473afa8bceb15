package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Publisher e' il lato di pubblicazione del feed (implementato da Hub).
type Publisher interface {
	Publish(Event)
}

// notifyPayload e' il JSON emesso dal trigger notify_change().
type notifyPayload struct {
	Table  string          `json:"table"`
	Type   string          `json:"type"`
	Record json.RawMessage `json:"record"`
}

// PGBridge porta le notifiche LISTEN/NOTIFY di Postgres dentro un Publisher.
type PGBridge struct {
	logger   *slog.Logger
	listener *pq.Listener
	channel  string
	out      Publisher
	idle     time.Duration
}

// NewPGBridge apre un pq.Listener sul canale indicato.
func NewPGBridge(logger *slog.Logger, dsn, channel string, out Publisher) (*PGBridge, error) {
	if dsn == "" {
		return nil, errors.New("DB_DSN is required")
	}
	if strings.TrimSpace(channel) == "" {
		return nil, errors.New("feed channel is required")
	}

	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected:
			logger.Warn("feed listener disconnesso", "error", err)
		case pq.ListenerEventReconnected:
			logger.Info("feed listener riconnesso")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("tentativo di connessione feed fallito", "error", err)
		}
	})
	if err := listener.Listen(channel); err != nil {
		_ = listener.Close()
		return nil, err
	}

	return &PGBridge{
		logger:   logger,
		listener: listener,
		channel:  channel,
		out:      out,
		idle:     90 * time.Second,
	}, nil
}

// Run inoltra le notifiche finche' ctx non viene cancellato.
func (b *PGBridge) Run(ctx context.Context) error {
	defer b.listener.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-b.listener.Notify:
			if !ok {
				return ErrClosed
			}
			if n == nil {
				// Riconnessione: le notifiche nel frattempo sono perse.
				b.out.Publish(NewEvent("", EventResync, nil))
				continue
			}
			ev, err := decodeNotification(n.Extra)
			if err != nil {
				b.logger.Warn("payload feed non valido", "channel", n.Channel, "error", err)
				continue
			}
			b.out.Publish(ev)
		case <-time.After(b.idle):
			if err := b.listener.Ping(); err != nil {
				b.logger.Warn("ping feed listener fallito", "error", err)
			}
		}
	}
}

func decodeNotification(extra string) (Event, error) {
	var payload notifyPayload
	if err := json.Unmarshal([]byte(extra), &payload); err != nil {
		return Event{}, err
	}
	if payload.Table == "" {
		return Event{}, ErrInvalidTable
	}

	typ := EventType(strings.ToUpper(payload.Type))
	switch typ {
	case EventInsert, EventUpdate, EventDelete:
	default:
		return Event{}, errors.New("unknown event type " + payload.Type)
	}
	return NewEvent(payload.Table, typ, payload.Record), nil
}
