package roster

import "sync"

// Store mantiene in memoria la lista ordinata mostrata da una view.
// Non esiste merge: ReplaceAll sostituisce tutto e scarta i delta ottimistici.
type Store[T any] struct {
	mu       sync.RWMutex
	key      func(T) string
	items    []T
	version  uint64
	watchers map[int]func(uint64)
	nextID   int
}

// NewStore crea uno store vuoto; key estrae l'ID dell'entita'.
func NewStore[T any](key func(T) string) *Store[T] {
	return &Store[T]{key: key, watchers: make(map[int]func(uint64))}
}

// ReplaceAll sostituisce il contenuto con items (ultimo scrittore vince).
func (s *Store[T]) ReplaceAll(items []T) {
	next := make([]T, len(items))
	copy(next, items)

	s.mu.Lock()
	s.items = next
	s.version++
	version := s.version
	watchers := s.watcherList()
	s.mu.Unlock()

	notify(watchers, version)
}

// ApplyOptimisticDelta trasforma in place l'entita' con ID id.
// Ritorna false se l'entita' non e' presente.
func (s *Store[T]) ApplyOptimisticDelta(id string, mutate func(T) T) bool {
	if mutate == nil {
		return false
	}

	s.mu.Lock()
	idx := -1
	for i, item := range s.items {
		if s.key(item) == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}

	// Copia-su-scrittura: gli snapshot gia' restituiti non cambiano.
	next := make([]T, len(s.items))
	copy(next, s.items)
	next[idx] = mutate(next[idx])
	s.items = next
	s.version++
	version := s.version
	watchers := s.watcherList()
	s.mu.Unlock()

	notify(watchers, version)
	return true
}

// Snapshot ritorna una copia del contenuto corrente.
func (s *Store[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// VersionedSnapshot ritorna copia e versione lette insieme.
func (s *Store[T]) VersionedSnapshot() ([]T, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out, s.version
}

// Get ritorna l'entita' con ID id, se presente.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if s.key(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Version cresce a ogni modifica.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Watch registra fn, chiamata dopo ogni modifica con la nuova versione.
// fn non deve chiamare metodi di scrittura dello store.
func (s *Store[T]) Watch(fn func(version uint64)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store[T]) watcherList() []func(uint64) {
	if len(s.watchers) == 0 {
		return nil
	}
	out := make([]func(uint64), 0, len(s.watchers))
	for _, fn := range s.watchers {
		out = append(out, fn)
	}
	return out
}

func notify(watchers []func(uint64), version uint64) {
	for _, fn := range watchers {
		fn(version)
	}
}
