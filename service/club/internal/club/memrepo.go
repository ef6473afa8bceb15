package club

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"RunClubHub/service/club/internal/feed"
	"github.com/google/uuid"
)

type memClub struct {
	leaderID uuid.UUID
	club     NewClub
	created  time.Time
}

type memMembership struct {
	ID       uuid.UUID `json:"id"`
	ClubID   uuid.UUID `json:"club_id"`
	RunnerID uuid.UUID `json:"runner_id"`
	JoinedAt time.Time `json:"created_at"`
}

// MemoryRepo e' un Repository in memoria per il mock server e i test.
// Come i trigger Postgres, ogni scrittura pubblica un evento sul feed.
type MemoryRepo struct {
	mu          sync.Mutex
	out         feed.Publisher
	profiles    map[uuid.UUID]Profile
	clubs       map[uuid.UUID]memClub
	memberships []memMembership
	posts       []Post
	plans       map[uuid.UUID]PlanType
}

var (
	_ Repository = (*MemoryRepo)(nil)
	_ Repository = (*Repo)(nil)
)

// NewMemoryRepo crea un repository vuoto; out puo' essere nil.
func NewMemoryRepo(out feed.Publisher) *MemoryRepo {
	return &MemoryRepo{
		out:      out,
		profiles: map[uuid.UUID]Profile{},
		clubs:    map[uuid.UUID]memClub{},
		plans:    map[uuid.UUID]PlanType{},
	}
}

// SetPlan imposta il piano dell'utente.
func (m *MemoryRepo) SetPlan(userID uuid.UUID, plan PlanType) {
	m.mu.Lock()
	m.plans[userID] = plan
	m.mu.Unlock()
	m.publish(TableSubscriptions, feed.EventUpdate, Subscription{UserID: userID, PlanType: plan})
}

func (m *MemoryRepo) publish(table string, typ feed.EventType, record any) {
	if m.out == nil {
		return
	}
	raw, _ := json.Marshal(record)
	m.out.Publish(feed.NewEvent(table, typ, raw))
}

func (m *MemoryRepo) ListClubs(_ context.Context) ([]ClubSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clubs := []ClubSummary{}
	for id, c := range m.clubs {
		clubs = append(clubs, ClubSummary{
			ID:          id,
			Name:        c.club.Name,
			Description: c.club.Description,
			Location:    c.club.Location,
			LeaderName:  m.profiles[c.leaderID].FullName,
			CreatedAt:   c.created,
		})
	}
	sort.Slice(clubs, func(i, j int) bool { return clubs[i].CreatedAt.After(clubs[j].CreatedAt) })
	return clubs, nil
}

func (m *MemoryRepo) ClubLeader(_ context.Context, clubID uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clubs[clubID]
	if !ok {
		return uuid.Nil, ErrClubNotFound
	}
	return c.leaderID, nil
}

func (m *MemoryRepo) CountMembers(_ context.Context, clubID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ms := range m.memberships {
		if ms.ClubID == clubID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepo) MembershipExists(_ context.Context, clubID, runnerID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOf(clubID, runnerID) >= 0, nil
}

func (m *MemoryRepo) indexOf(clubID, runnerID uuid.UUID) int {
	for i, ms := range m.memberships {
		if ms.ClubID == clubID && ms.RunnerID == runnerID {
			return i
		}
	}
	return -1
}

func (m *MemoryRepo) InsertMembership(_ context.Context, clubID, runnerID uuid.UUID) error {
	m.mu.Lock()
	if _, ok := m.clubs[clubID]; !ok {
		m.mu.Unlock()
		return ErrClubNotFound
	}
	if m.indexOf(clubID, runnerID) >= 0 {
		m.mu.Unlock()
		return ErrDuplicateMembership
	}
	ms := memMembership{ID: uuid.New(), ClubID: clubID, RunnerID: runnerID, JoinedAt: time.Now().UTC()}
	m.memberships = append(m.memberships, ms)
	m.mu.Unlock()

	m.publish(TableMemberships, feed.EventInsert, ms)
	return nil
}

func (m *MemoryRepo) DeleteMembership(_ context.Context, clubID, runnerID uuid.UUID) error {
	m.mu.Lock()
	i := m.indexOf(clubID, runnerID)
	if i < 0 {
		m.mu.Unlock()
		return nil
	}
	ms := m.memberships[i]
	m.memberships = append(m.memberships[:i:i], m.memberships[i+1:]...)
	m.mu.Unlock()

	m.publish(TableMemberships, feed.EventDelete, ms)
	return nil
}

func (m *MemoryRepo) GetProfile(_ context.Context, userID uuid.UUID) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (m *MemoryRepo) InsertProfile(_ context.Context, profile Profile) error {
	m.mu.Lock()
	if _, ok := m.profiles[profile.ID]; ok {
		m.mu.Unlock()
		return ErrDuplicateProfile
	}
	m.profiles[profile.ID] = profile
	if _, ok := m.plans[profile.ID]; !ok {
		m.plans[profile.ID] = PlanFree
	}
	m.mu.Unlock()

	m.publish(TableProfiles, feed.EventInsert, profile)
	return nil
}

// rosters costruisce i roster dei club selezionati, ordinati per nome.
func (m *MemoryRepo) rosters(match func(uuid.UUID, memClub) bool) []ClubRoster {
	out := []ClubRoster{}
	for id, c := range m.clubs {
		if !match(id, c) {
			continue
		}
		r := ClubRoster{ID: id, Name: c.club.Name, Members: []ClubMember{}}
		for _, ms := range m.memberships {
			if ms.ClubID != id {
				continue
			}
			p := m.profiles[ms.RunnerID]
			r.Members = append(r.Members, ClubMember{ID: ms.RunnerID, FullName: p.FullName, AvatarURL: p.AvatarURL, JoinedAt: ms.JoinedAt})
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (m *MemoryRepo) ListRunnerRosters(_ context.Context, runnerID uuid.UUID) ([]ClubRoster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rosters(func(id uuid.UUID, _ memClub) bool { return m.indexOf(id, runnerID) >= 0 }), nil
}

func (m *MemoryRepo) ListLeaderRosters(_ context.Context, leaderID uuid.UUID) ([]ClubRoster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rosters(func(_ uuid.UUID, c memClub) bool { return c.leaderID == leaderID }), nil
}

func (m *MemoryRepo) ListLeaderClubs(_ context.Context, leaderID uuid.UUID) ([]LeaderClub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clubs := []LeaderClub{}
	for id, c := range m.clubs {
		if c.leaderID != leaderID {
			continue
		}
		lc := LeaderClub{ID: id, Name: c.club.Name, Description: c.club.Description, Location: c.club.Location, LatestPosts: []Post{}, CreatedAt: c.created}
		for i := len(m.posts) - 1; i >= 0 && len(lc.LatestPosts) < latestPostsPerClub; i-- {
			if m.posts[i].ClubID == id {
				p := m.posts[i]
				p.ClubName = c.club.Name
				lc.LatestPosts = append(lc.LatestPosts, p)
			}
		}
		clubs = append(clubs, lc)
	}
	sort.Slice(clubs, func(i, j int) bool { return clubs[i].CreatedAt.After(clubs[j].CreatedAt) })
	return clubs, nil
}

func (m *MemoryRepo) InsertPost(_ context.Context, post Post) error {
	m.mu.Lock()
	if _, ok := m.clubs[post.ClubID]; !ok {
		m.mu.Unlock()
		return ErrClubNotFound
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	m.posts = append(m.posts, post)
	m.mu.Unlock()

	m.publish(TablePosts, feed.EventInsert, post)
	return nil
}

func (m *MemoryRepo) ListPosts(_ context.Context, userID uuid.UUID, role Role) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	posts := []Post{}
	for i := len(m.posts) - 1; i >= 0; i-- {
		p := m.posts[i]
		c, ok := m.clubs[p.ClubID]
		if !ok {
			continue
		}
		visible := c.leaderID == userID
		if role == RoleRunner {
			visible = m.indexOf(p.ClubID, userID) >= 0
		}
		if !visible {
			continue
		}
		p.ClubName = c.club.Name
		p.AuthorName = m.profiles[p.AuthorID].FullName
		posts = append(posts, p)
	}
	return posts, nil
}

func (m *MemoryRepo) GetSubscription(_ context.Context, userID uuid.UUID) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[userID]
	if !ok {
		plan = PlanFree
	}
	return Subscription{UserID: userID, PlanType: plan}, nil
}

func (m *MemoryRepo) CountClubsByLeader(_ context.Context, leaderID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.clubs {
		if c.leaderID == leaderID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepo) InsertClub(_ context.Context, leaderID uuid.UUID, club NewClub) (uuid.UUID, error) {
	id := uuid.New()
	m.mu.Lock()
	m.clubs[id] = memClub{leaderID: leaderID, club: club, created: time.Now().UTC()}
	m.mu.Unlock()

	m.publish(TableClubs, feed.EventInsert, map[string]any{"id": id, "leader_id": leaderID, "name": club.Name})
	return id, nil
}
