package club

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"RunClubHub/service/club/internal/feed"
	"RunClubHub/service/club/internal/lock"
	"RunClubHub/service/club/internal/roster"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeClub struct {
	id        uuid.UUID
	leaderID  uuid.UUID
	name      string
	desc      string
	location  string
	createdAt time.Time
}

type fakeMembership struct {
	clubID   uuid.UUID
	runnerID uuid.UUID
	joinedAt time.Time
}

// fakeRepo simula il data service in memoria, con la UNIQUE(club, runner).
type fakeRepo struct {
	mu          sync.Mutex
	profiles    map[uuid.UUID]Profile
	clubs       []fakeClub
	memberships []fakeMembership
	posts       []Post
	plans       map[uuid.UUID]PlanType

	existsErr error
	insertErr error
	countErr  map[uuid.UUID]error
	inserts   int
	deletes   int

	// clubStarted/clubGate sospendono InsertClub per simulare richieste sovrapposte.
	clubStarted chan struct{}
	clubGate    chan struct{}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles: map[uuid.UUID]Profile{},
		plans:    map[uuid.UUID]PlanType{},
		countErr: map[uuid.UUID]error{},
	}
}

func (f *fakeRepo) addProfile(role Role, name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.profiles[id] = Profile{ID: id, Role: role, FullName: name}
	return id
}

func (f *fakeRepo) addClub(leaderID uuid.UUID, name, location string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.clubs = append(f.clubs, fakeClub{
		id:        id,
		leaderID:  leaderID,
		name:      name,
		desc:      name + " weekly runs",
		location:  location,
		createdAt: time.Now().Add(time.Duration(len(f.clubs)) * time.Second),
	})
	return id
}

func (f *fakeRepo) addMember(clubID, runnerID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberships = append(f.memberships, fakeMembership{clubID: clubID, runnerID: runnerID, joinedAt: time.Now()})
}

func (f *fakeRepo) members(clubID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.memberships {
		if m.clubID == clubID {
			n++
		}
	}
	return n
}

func (f *fakeRepo) club(id uuid.UUID) (fakeClub, bool) {
	for _, c := range f.clubs {
		if c.id == id {
			return c, true
		}
	}
	return fakeClub{}, false
}

func (f *fakeRepo) ListClubs(_ context.Context) ([]ClubSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []ClubSummary{}
	for _, c := range f.clubs {
		out = append(out, ClubSummary{
			ID:          c.id,
			Name:        c.name,
			Description: c.desc,
			Location:    c.location,
			LeaderName:  f.profiles[c.leaderID].FullName,
			CreatedAt:   c.createdAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) ClubLeader(_ context.Context, clubID uuid.UUID) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.club(clubID)
	if !ok {
		return uuid.Nil, ErrClubNotFound
	}
	return c.leaderID, nil
}

func (f *fakeRepo) CountMembers(_ context.Context, clubID uuid.UUID) (int, error) {
	f.mu.Lock()
	err := f.countErr[clubID]
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return f.members(clubID), nil
}

func (f *fakeRepo) MembershipExists(_ context.Context, clubID, runnerID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, m := range f.memberships {
		if m.clubID == clubID && m.runnerID == runnerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) InsertMembership(_ context.Context, clubID, runnerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, m := range f.memberships {
		if m.clubID == clubID && m.runnerID == runnerID {
			return ErrDuplicateMembership
		}
	}
	f.inserts++
	f.memberships = append(f.memberships, fakeMembership{clubID: clubID, runnerID: runnerID, joinedAt: time.Now()})
	return nil
}

func (f *fakeRepo) DeleteMembership(_ context.Context, clubID, runnerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	kept := f.memberships[:0]
	for _, m := range f.memberships {
		if m.clubID == clubID && m.runnerID == runnerID {
			continue
		}
		kept = append(kept, m)
	}
	f.memberships = kept
	return nil
}

func (f *fakeRepo) GetProfile(_ context.Context, userID uuid.UUID) (Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeRepo) InsertProfile(_ context.Context, profile Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[profile.ID]; ok {
		return ErrDuplicateProfile
	}
	f.profiles[profile.ID] = profile
	return nil
}

func (f *fakeRepo) rosters(match func(fakeClub) bool) []ClubRoster {
	out := []ClubRoster{}
	for _, c := range f.clubs {
		if !match(c) {
			continue
		}
		r := ClubRoster{ID: c.id, Name: c.name, Members: []ClubMember{}}
		for _, m := range f.memberships {
			if m.clubID == c.id {
				r.Members = append(r.Members, ClubMember{ID: m.runnerID, FullName: f.profiles[m.runnerID].FullName, JoinedAt: m.joinedAt})
			}
		}
		out = append(out, r)
	}
	return out
}

func (f *fakeRepo) ListRunnerRosters(_ context.Context, runnerID uuid.UUID) ([]ClubRoster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rosters(func(c fakeClub) bool {
		for _, m := range f.memberships {
			if m.clubID == c.id && m.runnerID == runnerID {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeRepo) ListLeaderRosters(_ context.Context, leaderID uuid.UUID) ([]ClubRoster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rosters(func(c fakeClub) bool { return c.leaderID == leaderID }), nil
}

func (f *fakeRepo) ListLeaderClubs(_ context.Context, leaderID uuid.UUID) ([]LeaderClub, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []LeaderClub{}
	for _, c := range f.clubs {
		if c.leaderID != leaderID {
			continue
		}
		lc := LeaderClub{ID: c.id, Name: c.name, Description: c.desc, Location: c.location, CreatedAt: c.createdAt}
		for i := len(f.posts) - 1; i >= 0 && len(lc.LatestPosts) < latestPostsPerClub; i-- {
			if f.posts[i].ClubID == c.id {
				p := f.posts[i]
				p.ClubName = c.name
				lc.LatestPosts = append(lc.LatestPosts, p)
			}
		}
		out = append(out, lc)
	}
	return out, nil
}

func (f *fakeRepo) InsertPost(_ context.Context, post Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, post)
	return nil
}

func (f *fakeRepo) ListPosts(_ context.Context, userID uuid.UUID, role Role) ([]Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	visible := map[uuid.UUID]bool{}
	for _, c := range f.clubs {
		if role == RoleLeader && c.leaderID == userID {
			visible[c.id] = true
		}
	}
	for _, m := range f.memberships {
		if role == RoleRunner && m.runnerID == userID {
			visible[m.clubID] = true
		}
	}
	out := []Post{}
	for i := len(f.posts) - 1; i >= 0; i-- {
		if visible[f.posts[i].ClubID] {
			out = append(out, f.posts[i])
		}
	}
	return out, nil
}

func (f *fakeRepo) GetSubscription(_ context.Context, userID uuid.UUID) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan, ok := f.plans[userID]
	if !ok {
		plan = PlanFree
	}
	return Subscription{UserID: userID, PlanType: plan}, nil
}

func (f *fakeRepo) CountClubsByLeader(_ context.Context, leaderID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.clubs {
		if c.leaderID == leaderID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) InsertClub(_ context.Context, leaderID uuid.UUID, club NewClub) (uuid.UUID, error) {
	if f.clubGate != nil {
		f.clubStarted <- struct{}{}
		<-f.clubGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.clubs = append(f.clubs, fakeClub{id: id, leaderID: leaderID, name: club.Name, desc: club.Description, location: club.Location, createdAt: time.Now()})
	return id, nil
}

// Caso: club con leader e due runner gia' iscritti.
func seedClub(t *testing.T) (*fakeRepo, uuid.UUID, uuid.UUID) {
	t.Helper()
	repo := newFakeRepo()
	leader := repo.addProfile(RoleLeader, "Lea Leader")
	clubID := repo.addClub(leader, "Dawn Patrol", "Milano")
	repo.addMember(clubID, repo.addProfile(RoleRunner, "Anna"))
	repo.addMember(clubID, repo.addProfile(RoleRunner, "Bruno"))
	return repo, leader, clubID
}

func TestServiceJoinAlreadyMember(t *testing.T) {
	repo, _, clubID := seedClub(t)
	runner := repo.addProfile(RoleRunner, "Carla")
	repo.addMember(clubID, runner)
	service := NewService(nil, repo)

	notice := service.JoinClub(context.Background(), nil, clubID, runner)
	if notice.Level != roster.NoticeInfo || notice.Message != msgAlreadyMember {
		t.Fatalf("expected already-member info notice, got %+v", notice)
	}
	if repo.inserts != 0 {
		t.Fatalf("expected no insert, got %d", repo.inserts)
	}
}

// Doppio join concorrente: una riga sola, il secondo esito e' informativo.
func TestServiceJoinDoubleSubmit(t *testing.T) {
	repo, _, clubID := seedClub(t)
	repo.existsErr = errors.New("pre-check timeout")
	runner := repo.addProfile(RoleRunner, "Carla")
	service := NewService(nil, repo)

	var wg sync.WaitGroup
	notices := make([]roster.Notice, 2)
	for i := range notices {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			notices[i] = service.JoinClub(context.Background(), nil, clubID, runner)
		}(i)
	}
	wg.Wait()

	levels := map[roster.NoticeLevel]int{}
	for _, n := range notices {
		levels[n.Level]++
	}
	if levels[roster.NoticeSuccess] != 1 || levels[roster.NoticeInfo] != 1 {
		t.Fatalf("expected one success and one info, got %+v", notices)
	}
	if got := repo.members(clubID); got != 3 {
		t.Fatalf("expected 3 members, got %d", got)
	}
}

type failingLocks struct{}

func (failingLocks) Acquire(context.Context, string) (string, bool, error) {
	return "", false, errors.New("redis down")
}

func (failingLocks) Release(context.Context, string, string) error { return nil }

// Con il lock gia' preso la seconda richiesta non arriva al DB.
func TestServiceJoinInProgress(t *testing.T) {
	repo, _, clubID := seedClub(t)
	runner := repo.addProfile(RoleRunner, "Carla")
	locks := lock.NewMemoryLock(time.Minute)
	defer locks.Close()
	service := NewService(nil, repo, WithLocks(locks))

	token, ok, err := locks.Acquire(context.Background(), "join:"+clubID.String()+":"+runner.String())
	require.NoError(t, err)
	require.True(t, ok)

	notice := service.JoinClub(context.Background(), nil, clubID, runner)
	require.Equal(t, roster.NoticeInfo, notice.Level)
	require.Equal(t, msgInProgress, notice.Message)
	require.Zero(t, repo.inserts)

	require.NoError(t, locks.Release(context.Background(), "join:"+clubID.String()+":"+runner.String(), token))
	notice = service.JoinClub(context.Background(), nil, clubID, runner)
	require.Equal(t, roster.NoticeSuccess, notice.Level)

	// Il lock viene rilasciato a fine azione.
	notice = service.JoinClub(context.Background(), nil, clubID, runner)
	require.Equal(t, msgAlreadyMember, notice.Message)
}

func TestServiceJoinLockUnavailable(t *testing.T) {
	repo, _, clubID := seedClub(t)
	service := NewService(nil, repo, WithLocks(failingLocks{}))

	notice := service.JoinClub(context.Background(), nil, clubID, repo.addProfile(RoleRunner, "Carla"))
	require.Equal(t, roster.NoticeSuccess, notice.Level)
	require.Equal(t, 3, repo.members(clubID))
}

func TestServiceJoinGenericError(t *testing.T) {
	repo, _, clubID := seedClub(t)
	repo.insertErr = errors.New("connection reset")
	service := NewService(nil, repo)

	notice := service.JoinClub(context.Background(), nil, clubID, uuid.New())
	if notice.Level != roster.NoticeError || notice.Message != msgJoinFailed {
		t.Fatalf("expected error notice, got %+v", notice)
	}
}

// Join con view montata: +1 immediato, poi il re-fetch conferma lo stesso valore.
func TestServiceJoinOptimisticThenReconcile(t *testing.T) {
	repo, _, clubID := seedClub(t)
	runner := repo.addProfile(RoleRunner, "Carla")
	service := NewService(nil, repo)
	hub := feed.NewHub()
	defer hub.Close()

	view := NewExploreView(service, hub, nil, roster.WithReconcileDelay(10*time.Millisecond))
	require.NoError(t, view.Mount(context.Background()))
	defer view.Unmount()

	got, _ := view.Store().Get(clubID.String())
	require.Equal(t, 2, got.MemberCount)
	version := view.Store().Version()

	notice := service.JoinClub(context.Background(), view, clubID, runner)
	require.Equal(t, roster.NoticeSuccess, notice.Level)
	require.Equal(t, msgJoined, notice.Message)

	got, _ = view.Store().Get(clubID.String())
	require.Equal(t, 3, got.MemberCount)

	require.Eventually(t, func() bool { return view.Store().Version() >= version+2 }, time.Second, 5*time.Millisecond)
	got, _ = view.Store().Get(clubID.String())
	require.Equal(t, 3, got.MemberCount)
}

// Rimozione dell'ultimo membro: il roster torna vuoto, non nullo.
func TestServiceRemoveLastMember(t *testing.T) {
	repo := newFakeRepo()
	leader := repo.addProfile(RoleLeader, "Lea")
	clubID := repo.addClub(leader, "Solo", "Roma")
	runner := repo.addProfile(RoleRunner, "Anna")
	repo.addMember(clubID, runner)
	service := NewService(nil, repo)
	hub := feed.NewHub()
	defer hub.Close()

	view := NewMembersView(service, hub, leader, roster.WithReconcileDelay(5*time.Millisecond))
	require.NoError(t, view.Mount(context.Background()))
	defer view.Unmount()

	got, _ := view.Store().Get(clubID.String())
	require.Len(t, got.Members, 1)

	notice := service.RemoveMember(context.Background(), view, leader, clubID, runner)
	require.Equal(t, roster.NoticeSuccess, notice.Level)

	require.Eventually(t, func() bool {
		r, ok := view.Store().Get(clubID.String())
		return ok && r.Members != nil && len(r.Members) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestServiceRemoveMemberNotLeader(t *testing.T) {
	repo, _, clubID := seedClub(t)
	intruder := repo.addProfile(RoleLeader, "Other")
	service := NewService(nil, repo)

	notice := service.RemoveMember(context.Background(), nil, intruder, clubID, uuid.New())
	if notice.Level != roster.NoticeError {
		t.Fatalf("expected error notice, got %+v", notice)
	}
	if repo.deletes != 0 {
		t.Fatalf("expected no delete, got %d", repo.deletes)
	}
}

// Un altro client si iscrive: il feed porta la view al nuovo conteggio.
func TestServiceExploreFollowsOtherClients(t *testing.T) {
	repo, _, clubID := seedClub(t)
	service := NewService(nil, repo)
	hub := feed.NewHub()
	defer hub.Close()

	view := NewExploreView(service, hub, nil)
	require.NoError(t, view.Mount(context.Background()))
	defer view.Unmount()

	repo.addMember(clubID, uuid.New())
	hub.Publish(feed.NewEvent(TableMemberships, feed.EventInsert, nil))

	require.Eventually(t, func() bool {
		got, _ := view.Store().Get(clubID.String())
		return got.MemberCount == 3
	}, time.Second, 5*time.Millisecond)
}

func TestServiceExploreCountFallback(t *testing.T) {
	repo, leader, clubID := seedClub(t)
	other := repo.addClub(leader, "Night Owls", "Torino")
	repo.countErr[other] = errors.New("statement timeout")
	service := NewService(nil, repo)

	clubs, err := service.ExploreClubs(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts := map[uuid.UUID]int{}
	for _, c := range clubs {
		counts[c.ID] = c.MemberCount
	}
	if counts[clubID] != 2 || counts[other] != 0 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
	if clubs[0].ID != other {
		t.Fatalf("expected newest club first, got %s", clubs[0].Name)
	}
}

func TestServiceExploreSearch(t *testing.T) {
	repo, leader, _ := seedClub(t)
	repo.addClub(leader, "Night Owls", "Torino")
	service := NewService(nil, repo)

	clubs, err := service.ExploreClubs(context.Background(), "  TORINO ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clubs) != 1 || clubs[0].Name != "Night Owls" {
		t.Fatalf("unexpected search result: %+v", clubs)
	}
}

// La ricerca resta applicata anche dopo un refresh dal feed.
func TestServiceExploreViewKeepsSearch(t *testing.T) {
	repo, leader, _ := seedClub(t)
	service := NewService(nil, repo)
	hub := feed.NewHub()
	defer hub.Close()

	search := &Search{}
	search.Set("owls")
	view := NewExploreView(service, hub, search)
	require.NoError(t, view.Mount(context.Background()))
	defer view.Unmount()
	require.Empty(t, view.Store().Snapshot())

	repo.addClub(leader, "Night Owls", "Torino")
	hub.Publish(feed.NewEvent(TableClubs, feed.EventInsert, nil))

	require.Eventually(t, func() bool {
		snap := view.Store().Snapshot()
		return len(snap) == 1 && snap[0].Name == "Night Owls"
	}, time.Second, 5*time.Millisecond)
}

func TestServiceMemberRostersWithoutProfile(t *testing.T) {
	service := NewService(nil, newFakeRepo())

	rosters, err := service.MemberRosters(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rosters == nil || len(rosters) != 0 {
		t.Fatalf("expected empty list, got %+v", rosters)
	}
}

func TestServiceMemberRostersRunner(t *testing.T) {
	repo, leader, clubID := seedClub(t)
	repo.addClub(leader, "Other", "Roma")
	runner := repo.addProfile(RoleRunner, "Carla")
	repo.addMember(clubID, runner)
	service := NewService(nil, repo)

	rosters, err := service.MemberRosters(context.Background(), runner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rosters) != 1 || rosters[0].ID != clubID || len(rosters[0].Members) != 3 {
		t.Fatalf("unexpected rosters: %+v", rosters)
	}
}

func TestServiceCreatePost(t *testing.T) {
	repo, leader, clubID := seedClub(t)
	service := NewService(nil, repo)
	hub := feed.NewHub()
	defer hub.Close()

	view := NewDashboardView(service, hub, leader, roster.WithReconcileDelay(time.Hour))
	require.NoError(t, view.Mount(context.Background()))
	defer view.Unmount()

	notice := service.CreatePost(context.Background(), view, clubID, leader, "  Tempo run Thursday  ")
	require.Equal(t, roster.NoticeSuccess, notice.Level)

	got, _ := view.Store().Get(clubID.String())
	require.Len(t, got.LatestPosts, 1)
	require.Equal(t, "Tempo run Thursday", got.LatestPosts[0].Content)
	require.Equal(t, "Dawn Patrol", got.LatestPosts[0].ClubName)

	posts, err := service.Posts(context.Background(), leader)
	require.NoError(t, err)
	require.Len(t, posts, 1)
}

func TestServiceCreatePostRejected(t *testing.T) {
	repo, _, clubID := seedClub(t)
	runner := repo.addProfile(RoleRunner, "Carla")
	service := NewService(nil, repo)

	if n := service.CreatePost(context.Background(), nil, clubID, runner, "   "); n.Level != roster.NoticeInfo {
		t.Fatalf("expected info notice for empty content, got %+v", n)
	}
	if n := service.CreatePost(context.Background(), nil, clubID, runner, "hello"); n.Level != roster.NoticeError {
		t.Fatalf("expected error notice for non-leader, got %+v", n)
	}
	if len(repo.posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(repo.posts))
	}
}

func TestServiceCreateClubFreePlanLimit(t *testing.T) {
	repo, leader, _ := seedClub(t)
	service := NewService(nil, repo)
	in := NewClub{Name: "Second", Description: "Another club", Location: "Napoli"}

	_, err := service.CreateClub(context.Background(), leader, in)
	if !errors.Is(err, ErrFreePlanLimit) {
		t.Fatalf("expected ErrFreePlanLimit, got %v", err)
	}

	repo.plans[leader] = PlanPro
	id, err := service.CreateClub(context.Background(), leader, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == uuid.Nil {
		t.Fatalf("expected club id")
	}
}

// Due create sovrapposte dello stesso leader free: passa solo la prima.
func TestServiceCreateClubConcurrentFreePlan(t *testing.T) {
	repo := newFakeRepo()
	leader := repo.addProfile(RoleLeader, "Lea Leader")
	repo.clubStarted = make(chan struct{}, 1)
	repo.clubGate = make(chan struct{})
	locks := lock.NewMemoryLock(time.Minute)
	defer locks.Close()
	service := NewService(nil, repo, WithLocks(locks))
	in := NewClub{Name: "Dawn Patrol", Description: "Weekly runs", Location: "Milano"}

	type result struct {
		id  uuid.UUID
		err error
	}
	first := make(chan result, 1)
	go func() {
		id, err := service.CreateClub(context.Background(), leader, in)
		first <- result{id, err}
	}()
	<-repo.clubStarted

	_, err := service.CreateClub(context.Background(), leader, in)
	if !errors.Is(err, ErrActionInProgress) {
		t.Fatalf("expected ErrActionInProgress, got %v", err)
	}

	close(repo.clubGate)
	res := <-first
	if res.err != nil || res.id == uuid.Nil {
		t.Fatalf("expected first create to succeed, got %+v", res)
	}

	repo.clubGate = nil
	if _, err := service.CreateClub(context.Background(), leader, in); !errors.Is(err, ErrFreePlanLimit) {
		t.Fatalf("expected ErrFreePlanLimit after first club, got %v", err)
	}
	if n, _ := repo.CountClubsByLeader(context.Background(), leader); n != 1 {
		t.Fatalf("expected 1 club, got %d", n)
	}
}

func TestServiceCreateClubValidation(t *testing.T) {
	repo := newFakeRepo()
	leader := repo.addProfile(RoleLeader, "Lea")
	runner := repo.addProfile(RoleRunner, "Anna")
	service := NewService(nil, repo)

	_, err := service.CreateClub(context.Background(), leader, NewClub{Name: "  ", Description: "x", Location: "y"})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	_, err = service.CreateClub(context.Background(), runner, NewClub{Name: "A", Description: "B", Location: "C"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
