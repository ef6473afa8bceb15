package club

import (
	"time"

	"github.com/google/uuid"
)

// Tabelle del data service, usate anche come chiavi del change feed.
const (
	TableProfiles      = "profiles"
	TableClubs         = "run_clubs"
	TableMemberships   = "run_club_memberships"
	TablePosts         = "run_club_posts"
	TableSubscriptions = "subscriptions"
)

// Role distingue runner e club leader.
type Role string

const (
	RoleRunner Role = "runner"
	RoleLeader Role = "leader"
)

// Valid riporta se il ruolo e' tra quelli ammessi.
func (r Role) Valid() bool {
	return r == RoleRunner || r == RoleLeader
}

// PlanType e' il piano di abbonamento dell'utente.
type PlanType string

const (
	PlanFree PlanType = "free"
	PlanPro  PlanType = "pro"
)

// Profile rappresenta il profilo pubblico di un utente.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// ClubSummary e' l'entita' della pagina explore.
// MemberCount e' derivato dal data service, mai calcolato localmente.
type ClubSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	LeaderName  string    `json:"leader_name"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClubMember e' un runner iscritto a un club.
type ClubMember struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

// ClubRoster e' l'entita' della pagina members.
type ClubRoster struct {
	ID      uuid.UUID    `json:"id"`
	Name    string       `json:"name"`
	Members []ClubMember `json:"members"`
}

// Post e' un aggiornamento pubblicato dal leader di un club.
type Post struct {
	ID         uuid.UUID `json:"id"`
	ClubID     uuid.UUID `json:"club_id"`
	ClubName   string    `json:"club_name,omitempty"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// LeaderClub e' l'entita' della dashboard del leader.
type LeaderClub struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	MemberCount int       `json:"member_count"`
	LatestPosts []Post    `json:"latest_posts"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewClub contiene i campi del form di creazione club.
type NewClub struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	MeetingDays   []string `json:"meeting_days"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	StartLocation string   `json:"start_location"`
	EndLocation   string   `json:"end_location"`
	RouteDetails  string   `json:"route_details"`
	Distance      string   `json:"distance"`
}

// Subscription e' il piano corrente dell'utente.
type Subscription struct {
	UserID   uuid.UUID `json:"user_id"`
	PlanType PlanType  `json:"plan_type"`
}

func summaryKey(c ClubSummary) string { return c.ID.String() }
func rosterKey(c ClubRoster) string   { return c.ID.String() }
func leaderKey(c LeaderClub) string   { return c.ID.String() }
