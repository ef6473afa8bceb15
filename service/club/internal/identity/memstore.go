package identity

import (
	"context"
	"sync"

	"RunClubHub/service/club/internal/club"
	"github.com/google/uuid"
)

// MemoryStore e' un UserStore in memoria per il mock server e i test.
// Il ruolo viene letto dai profili, come la LEFT JOIN del repository Postgres.
type MemoryStore struct {
	mu       sync.Mutex
	profiles Profiles
	users    map[uuid.UUID]memUser
}

type memUser struct {
	email string
	hash  string
}

var (
	_ UserStore = (*MemoryStore)(nil)
	_ UserStore = (*Repo)(nil)
)

// NewMemoryStore crea uno store vuoto che legge i ruoli da profiles.
func NewMemoryStore(profiles Profiles) *MemoryStore {
	return &MemoryStore{profiles: profiles, users: map[uuid.UUID]memUser{}}
}

func (m *MemoryStore) CreateUser(_ context.Context, id uuid.UUID, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.email == email {
			return ErrEmailTaken
		}
	}
	m.users[id] = memUser{email: email, hash: passwordHash}
	return nil
}

func (m *MemoryStore) UserByEmail(ctx context.Context, email string) (User, string, error) {
	m.mu.Lock()
	var (
		found bool
		id    uuid.UUID
		hash  string
	)
	for uid, u := range m.users {
		if u.email == email {
			found, id, hash = true, uid, u.hash
			break
		}
	}
	m.mu.Unlock()
	if !found {
		return User{}, "", ErrUserNotFound
	}
	return User{ID: id, Email: email, Role: m.role(ctx, id)}, hash, nil
}

func (m *MemoryStore) UserByID(ctx context.Context, id uuid.UUID) (User, error) {
	m.mu.Lock()
	u, ok := m.users[id]
	m.mu.Unlock()
	if !ok {
		return User{}, ErrUserNotFound
	}
	return User{ID: id, Email: u.email, Role: m.role(ctx, id)}, nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *MemoryStore) role(ctx context.Context, id uuid.UUID) club.Role {
	if m.profiles == nil {
		return ""
	}
	p, err := m.profiles.GetProfile(ctx, id)
	if err != nil {
		return ""
	}
	return p.Role
}
