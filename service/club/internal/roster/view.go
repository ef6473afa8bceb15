package roster

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"RunClubHub/service/club/internal/feed"
	"github.com/oklog/ulid/v2"
)

// DefaultReconcileDelay e' il ritardo del re-fetch dopo un'azione utente.
const DefaultReconcileDelay = 100 * time.Millisecond

// ErrAlreadyMounted indica un Mount ripetuto sulla stessa view.
var ErrAlreadyMounted = errors.New("view already mounted")

// Fetcher rilegge dal data service lo stato autorevole della view.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Option configura una View.
type Option func(*options)

type options struct {
	delay  time.Duration
	logger *slog.Logger
	tables []string
}

// WithReconcileDelay cambia il ritardo del re-fetch post-azione.
func WithReconcileDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithLogger imposta il logger della view.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTables indica le tabelle il cui change feed provoca un re-fetch.
func WithTables(tables ...string) Option {
	return func(o *options) {
		o.tables = append(o.tables, tables...)
	}
}

// View lega uno Store al data service e al change feed.
// Vive tra Mount e Unmount; dopo Unmount nessuna callback tocca lo store.
type View[T any] struct {
	name   string
	store  *Store[T]
	fetch  Fetcher[T]
	feed   feed.Subscriber
	delay  time.Duration
	logger *slog.Logger
	tables []string

	mu      sync.Mutex
	mounted bool
	ctx     context.Context
	cancel  context.CancelFunc
	subs    []feed.Subscription
	timers  map[*time.Timer]struct{}
	running sync.WaitGroup
	// lastResync e' l'ultimo RESYNC gestito: arriva una volta per tabella sottoscritta.
	lastResync ulid.ULID
}

// NewView crea una view non montata.
func NewView[T any](name string, key func(T) string, fetch Fetcher[T], sub feed.Subscriber, opts ...Option) *View[T] {
	o := options{delay: DefaultReconcileDelay, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return &View[T]{
		name:   name,
		store:  NewStore(key),
		fetch:  fetch,
		feed:   sub,
		delay:  o.delay,
		logger: o.logger,
		tables: o.tables,
		timers: make(map[*time.Timer]struct{}),
	}
}

// Store espone lo store della view (in sola lettura per i chiamanti).
func (v *View[T]) Store() *Store[T] {
	return v.store
}

// Name identifica la view nei log.
func (v *View[T]) Name() string {
	return v.name
}

// Mount apre una sottoscrizione per tabella e fa il primo fetch.
// Se una sottoscrizione fallisce quelle gia' aperte vengono rilasciate.
func (v *View[T]) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return ErrAlreadyMounted
	}
	viewCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	v.ctx = viewCtx
	v.cancel = cancel
	v.mounted = true
	v.mu.Unlock()

	subs := make([]feed.Subscription, 0, len(v.tables))
	for _, table := range v.tables {
		sub, err := v.feed.Subscribe(table, feed.EventAll, v.onEvent)
		if err != nil {
			for _, s := range subs {
				s.Unsubscribe()
			}
			v.Unmount()
			return err
		}
		subs = append(subs, sub)
	}

	v.mu.Lock()
	if !v.mounted {
		// Unmount concorrente durante la sottoscrizione.
		v.mu.Unlock()
		for _, s := range subs {
			s.Unsubscribe()
		}
		return context.Canceled
	}
	v.subs = subs
	v.running.Add(1)
	v.mu.Unlock()
	defer v.running.Done()

	// Il primo fetch segue la vita della view e anche la cancellazione del chiamante.
	fetchCtx, cancelFetch := context.WithCancel(viewCtx)
	defer cancelFetch()
	stop := context.AfterFunc(ctx, cancelFetch)
	defer stop()

	return v.refresh(fetchCtx)
}

// Unmount rilascia le sottoscrizioni, ferma i timer e attende i fetch in corso.
// E' idempotente.
func (v *View[T]) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	subs := v.subs
	v.subs = nil
	for timer := range v.timers {
		timer.Stop()
	}
	v.timers = make(map[*time.Timer]struct{})
	cancel := v.cancel
	v.mu.Unlock()

	// Fuori dal lock: Unsubscribe aspetta le callback in corso.
	for _, sub := range subs {
		sub.Unsubscribe()
	}
	cancel()
	v.running.Wait()
}

// Mounted riporta se la view e' attiva.
func (v *View[T]) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// Refresh forza un re-fetch completo in background.
func (v *View[T]) Refresh() {
	v.trigger("manual")
}

// ScheduleReconcile programma un re-fetch dopo il ritardo configurato.
// Se la view viene smontata prima, il timer viene fermato.
func (v *View[T]) ScheduleReconcile() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(v.delay, func() {
		v.mu.Lock()
		delete(v.timers, timer)
		v.mu.Unlock()
		v.trigger("delayed")
	})
	v.timers[timer] = struct{}{}
}

// Optimistic applica un delta locale non confermato.
func (v *View[T]) Optimistic(id string, mutate func(T) T) bool {
	if !v.Mounted() {
		return false
	}
	return v.store.ApplyOptimisticDelta(id, mutate)
}

func (v *View[T]) onEvent(ev feed.Event) {
	if ev.Type == feed.EventResync {
		v.mu.Lock()
		seen := ev.ID == v.lastResync
		v.lastResync = ev.ID
		v.mu.Unlock()
		if seen {
			return
		}
	}
	v.logger.Debug("change feed", "view", v.name, "table", ev.Table, "type", ev.Type)
	v.trigger("feed")
}

// trigger avvia un re-fetch tracciato, solo se la view e' montata.
func (v *View[T]) trigger(reason string) {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	ctx := v.ctx
	v.running.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.running.Done()
		if err := v.refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			v.logger.Warn("re-fetch roster fallito", "view", v.name, "reason", reason, "error", err)
		}
	}()
}

// refresh legge lo stato dal data service e lo applica con ReplaceAll.
func (v *View[T]) refresh(ctx context.Context) error {
	items, err := v.fetch(ctx)
	if err != nil {
		return err
	}

	// Il risultato di un fetch terminato dopo Unmount viene scartato.
	v.mu.Lock()
	alive := v.mounted
	v.mu.Unlock()
	if !alive {
		return context.Canceled
	}

	v.store.ReplaceAll(items)
	return nil
}
