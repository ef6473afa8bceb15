package club

import (
	"context"
	"sync/atomic"

	"RunClubHub/service/club/internal/feed"
	"RunClubHub/service/club/internal/roster"
	"github.com/google/uuid"
)

// Search e' il filtro di ricerca corrente della pagina explore.
// Il fetch lo rilegge a ogni refresh, quindi un evento del feed non lo perde.
type Search struct {
	v atomic.Pointer[string]
}

// Set aggiorna il filtro.
func (s *Search) Set(q string) {
	s.v.Store(&q)
}

// Get ritorna il filtro; vuoto se mai impostato.
func (s *Search) Get() string {
	if p := s.v.Load(); p != nil {
		return *p
	}
	return ""
}

// NewExploreView crea la view della pagina explore.
// Ascolta membership (conteggi) e club (nuovi club, modifiche).
func NewExploreView(svc *Service, sub feed.Subscriber, search *Search, opts ...roster.Option) *roster.View[ClubSummary] {
	if search == nil {
		search = &Search{}
	}
	fetch := func(ctx context.Context) ([]ClubSummary, error) {
		return svc.ExploreClubs(ctx, search.Get())
	}
	opts = append(opts, roster.WithTables(TableMemberships, TableClubs))
	return roster.NewView("explore", summaryKey, fetch, sub, opts...)
}

// NewMembersView crea la view della pagina members dell'utente.
func NewMembersView(svc *Service, sub feed.Subscriber, userID uuid.UUID, opts ...roster.Option) *roster.View[ClubRoster] {
	fetch := func(ctx context.Context) ([]ClubRoster, error) {
		return svc.MemberRosters(ctx, userID)
	}
	opts = append(opts, roster.WithTables(TableMemberships, TableProfiles))
	return roster.NewView("members", rosterKey, fetch, sub, opts...)
}

// NewDashboardView crea la view della dashboard del leader.
func NewDashboardView(svc *Service, sub feed.Subscriber, leaderID uuid.UUID, opts ...roster.Option) *roster.View[LeaderClub] {
	fetch := func(ctx context.Context) ([]LeaderClub, error) {
		return svc.LeaderDashboard(ctx, leaderID)
	}
	opts = append(opts, roster.WithTables(TableMemberships, TableClubs, TablePosts))
	return roster.NewView("dashboard", leaderKey, fetch, sub, opts...)
}
