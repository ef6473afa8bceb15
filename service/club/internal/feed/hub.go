package feed

import (
	"strings"
	"sync"
)

// Hub distribuisce gli eventi in-process a tutti i subscriber della tabella.
// Non deduplica: ogni sottoscrizione riceve la propria copia dell'evento.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*hubSub]struct{}
	closed bool
}

type hubSub struct {
	hub     *Hub
	table   string
	filter  EventType
	handler Handler

	// mu serializza callback e Unsubscribe.
	mu     sync.Mutex
	active bool
}

// NewHub crea un hub vuoto.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*hubSub]struct{})}
}

// Subscribe registra handler per gli eventi di table che passano filter.
func (h *Hub) Subscribe(table string, filter EventType, handler Handler) (Subscription, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, ErrInvalidTable
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}

	sub := &hubSub{hub: h, table: table, filter: filter, handler: handler, active: true}
	if h.subs[table] == nil {
		h.subs[table] = make(map[*hubSub]struct{})
	}
	h.subs[table][sub] = struct{}{}
	return sub, nil
}

// Publish consegna ev ai subscriber sul goroutine del chiamante.
// Gli eventi RESYNC raggiungono tutte le tabelle.
func (h *Hub) Publish(ev Event) {
	for _, sub := range h.targets(ev) {
		sub.deliver(ev)
	}
}

// Subscribers ritorna il numero di sottoscrizioni attive su table.
func (h *Hub) Subscribers(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[table])
}

// Close rimuove tutte le sottoscrizioni e rifiuta le nuove.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*hubSub
	for _, subs := range h.subs {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	h.subs = make(map[string]map[*hubSub]struct{})
	h.closed = true
	h.mu.Unlock()

	for _, sub := range all {
		sub.deactivate()
	}
}

func (h *Hub) targets(ev Event) []*hubSub {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*hubSub
	collect := func(subs map[*hubSub]struct{}) {
		for sub := range subs {
			if sub.filter.matches(ev.Type) {
				out = append(out, sub)
			}
		}
	}
	if ev.Type == EventResync {
		for _, subs := range h.subs {
			collect(subs)
		}
		return out
	}
	collect(h.subs[ev.Table])
	return out
}

func (s *hubSub) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.handler(ev)
}

func (s *hubSub) deactivate() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// Unsubscribe implementa Subscription.
func (s *hubSub) Unsubscribe() {
	s.hub.mu.Lock()
	if subs, ok := s.hub.subs[s.table]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.hub.subs, s.table)
		}
	}
	s.hub.mu.Unlock()
	s.deactivate()
}
