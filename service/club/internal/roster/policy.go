package roster

import (
	"context"
	"log/slog"
)

// NoticeLevel distingue notifiche informative da errori.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice e' l'esito di un'azione mostrato all'utente.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Messaggi di default delle notice.
const (
	MessageRetry = "Something went wrong. Please try again."
	MessageDone  = "Done."
)

// Action descrive un'azione utente che modifica il roster.
type Action[T any] struct {
	// Name identifica l'azione nei log.
	Name string
	// Exists e' il pre-check opzionale. Un errore viene trattato come "non esiste".
	Exists func(ctx context.Context) (bool, error)
	// Mutate esegue la scrittura sul data service.
	Mutate func(ctx context.Context) error
	// IsDuplicate riconosce i conflitti di chiave duplicata (benigni).
	IsDuplicate func(error) bool
	// TargetID e Delta descrivono l'aggiornamento ottimistico; Delta nil lo salta.
	TargetID string
	Delta    func(T) T

	ExistsMessage    string
	DuplicateMessage string
	SuccessMessage   string
	ErrorMessage     string
}

// Run esegue l'azione nell'ordine fisso:
// pre-check -> mutazione -> delta ottimistico -> re-fetch ritardato.
// view puo' essere nil quando non c'e' una view attiva da aggiornare.
func Run[T any](ctx context.Context, logger *slog.Logger, view *View[T], a Action[T]) Notice {
	if logger == nil {
		logger = slog.Default()
	}

	// 1) Pre-check: se la relazione esiste gia' non si scrive nulla.
	if a.Exists != nil {
		exists, err := a.Exists(ctx)
		if err != nil {
			// Fail-open: la UNIQUE sul DB copre il caso del doppio insert.
			logger.Warn("pre-check fallito, si procede", "action", a.Name, "error", err)
		} else if exists {
			return Notice{Level: NoticeInfo, Message: a.ExistsMessage}
		}
	}

	// Il re-fetch ritardato parte in ogni esito della mutazione.
	if view != nil {
		defer view.ScheduleReconcile()
	}

	// 2) Mutazione.
	if err := a.Mutate(ctx); err != nil {
		if a.IsDuplicate != nil && a.IsDuplicate(err) {
			logger.Info("mutazione duplicata ignorata", "action", a.Name)
			msg := a.DuplicateMessage
			if msg == "" {
				msg = a.ExistsMessage
			}
			return Notice{Level: NoticeInfo, Message: msg}
		}
		logger.Error("mutazione fallita", "action", a.Name, "error", err)
		msg := a.ErrorMessage
		if msg == "" {
			msg = MessageRetry
		}
		return Notice{Level: NoticeError, Message: msg}
	}

	// 3) Aggiornamento ottimistico.
	if view != nil && a.Delta != nil {
		if !view.Optimistic(a.TargetID, a.Delta) {
			logger.Debug("delta ottimistico senza target", "action", a.Name, "target_id", a.TargetID)
		}
	}

	msg := a.SuccessMessage
	if msg == "" {
		msg = MessageDone
	}
	return Notice{Level: NoticeSuccess, Message: msg}
}
