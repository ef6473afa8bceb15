package club

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"RunClubHub/service/club/internal/db"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Accesso dati del club su Postgres (persistence layer).
// Qui restano le query SQL e la traduzione in tipi di dominio.

// latestPostsPerClub limita i post mostrati in dashboard per club.
const latestPostsPerClub = 5

// Repository espone letture e scritture necessarie al dominio.
type Repository interface {
	ListClubs(ctx context.Context) ([]ClubSummary, error)
	ClubLeader(ctx context.Context, clubID uuid.UUID) (uuid.UUID, error)
	CountMembers(ctx context.Context, clubID uuid.UUID) (int, error)
	MembershipExists(ctx context.Context, clubID, runnerID uuid.UUID) (bool, error)
	InsertMembership(ctx context.Context, clubID, runnerID uuid.UUID) error
	DeleteMembership(ctx context.Context, clubID, runnerID uuid.UUID) error
	GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error)
	InsertProfile(ctx context.Context, profile Profile) error
	ListRunnerRosters(ctx context.Context, runnerID uuid.UUID) ([]ClubRoster, error)
	ListLeaderRosters(ctx context.Context, leaderID uuid.UUID) ([]ClubRoster, error)
	ListLeaderClubs(ctx context.Context, leaderID uuid.UUID) ([]LeaderClub, error)
	InsertPost(ctx context.Context, post Post) error
	ListPosts(ctx context.Context, userID uuid.UUID, role Role) ([]Post, error)
	GetSubscription(ctx context.Context, userID uuid.UUID) (Subscription, error)
	CountClubsByLeader(ctx context.Context, leaderID uuid.UUID) (int, error)
	InsertClub(ctx context.Context, leaderID uuid.UUID, club NewClub) (uuid.UUID, error)
}

// Repo implementa l'accesso al DB per il club.
type Repo struct {
	db *sql.DB
}

// NewRepo collega il repository a una connessione SQL.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// ListClubs ritorna tutti i club, dal piu' recente, senza conteggi.
func (r *Repo) ListClubs(ctx context.Context) ([]ClubSummary, error) {
	const query = `
SELECT c.id, c.name, c.description, c.location, COALESCE(p.full_name, ''), c.created_at
FROM run_clubs c
LEFT JOIN profiles p ON p.id = c.leader_id
ORDER BY c.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Error("errore lettura club", "error", err)
		return nil, err
	}
	defer rows.Close()

	clubs := []ClubSummary{}
	for rows.Next() {
		var c ClubSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Location, &c.LeaderName, &c.CreatedAt); err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

// ClubLeader ritorna il leader_id del club.
func (r *Repo) ClubLeader(ctx context.Context, clubID uuid.UUID) (uuid.UUID, error) {
	const query = `SELECT leader_id FROM run_clubs WHERE id = $1`

	var leaderID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, clubID).Scan(&leaderID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrClubNotFound
	}
	if err != nil {
		slog.Error("errore lettura leader club", "error", err, "club_id", clubID)
		return uuid.Nil, err
	}
	return leaderID, nil
}

// CountMembers conta le membership del club.
func (r *Repo) CountMembers(ctx context.Context, clubID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM run_club_memberships WHERE club_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, clubID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MembershipExists verifica se il runner e' gia' iscritto al club.
func (r *Repo) MembershipExists(ctx context.Context, clubID, runnerID uuid.UUID) (bool, error) {
	const query = `
SELECT EXISTS (
  SELECT 1 FROM run_club_memberships WHERE club_id = $1 AND runner_id = $2
)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, clubID, runnerID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// InsertMembership iscrive il runner; la UNIQUE(club_id, runner_id) diventa ErrDuplicateMembership.
func (r *Repo) InsertMembership(ctx context.Context, clubID, runnerID uuid.UUID) error {
	const query = `
INSERT INTO run_club_memberships (id, club_id, runner_id, created_at)
VALUES ($1, $2, $3, now())`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), clubID, runnerID)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateMembership
	}
	if err != nil {
		slog.Error("errore insert membership", "error", err, "club_id", clubID, "runner_id", runnerID)
	}
	return err
}

// DeleteMembership rimuove il runner dal club. Nessuna riga non e' un errore.
func (r *Repo) DeleteMembership(ctx context.Context, clubID, runnerID uuid.UUID) error {
	const query = `DELETE FROM run_club_memberships WHERE club_id = $1 AND runner_id = $2`

	if _, err := r.db.ExecContext(ctx, query, clubID, runnerID); err != nil {
		slog.Error("errore delete membership", "error", err, "club_id", clubID, "runner_id", runnerID)
		return err
	}
	return nil
}

// GetProfile carica il profilo dell'utente.
func (r *Repo) GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	const query = `
SELECT id, role, full_name, COALESCE(avatar_url, '')
FROM profiles
WHERE id = $1`

	var p Profile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.ID, &p.Role, &p.FullName, &p.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrProfileNotFound
	}
	if err != nil {
		slog.Error("errore lettura profilo", "error", err, "user_id", userID)
		return Profile{}, err
	}
	return p, nil
}

// InsertProfile crea profilo e abbonamento free nella stessa transazione.
func (r *Repo) InsertProfile(ctx context.Context, profile Profile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	const insertProfile = `
INSERT INTO profiles (id, role, full_name, avatar_url, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), now(), now())`
	if _, err := tx.ExecContext(ctx, insertProfile, profile.ID, profile.Role, profile.FullName, profile.AvatarURL); err != nil {
		_ = tx.Rollback()
		if db.IsUniqueViolation(err) {
			return ErrDuplicateProfile
		}
		slog.Error("errore insert profilo", "error", err, "user_id", profile.ID)
		return err
	}

	const insertSubscription = `
INSERT INTO subscriptions (user_id, plan_type, updated_at)
VALUES ($1, 'free', now())
ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, insertSubscription, profile.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ListRunnerRosters ritorna i club del runner con tutti i loro membri.
func (r *Repo) ListRunnerRosters(ctx context.Context, runnerID uuid.UUID) ([]ClubRoster, error) {
	const query = `
SELECT c.id, c.name, m.runner_id, COALESCE(p.full_name, ''), COALESCE(p.avatar_url, ''), m.created_at
FROM run_clubs c
JOIN run_club_memberships mine ON mine.club_id = c.id AND mine.runner_id = $1
LEFT JOIN run_club_memberships m ON m.club_id = c.id
LEFT JOIN profiles p ON p.id = m.runner_id
ORDER BY c.name, c.id, m.created_at`

	return r.queryRosters(ctx, query, runnerID)
}

// ListLeaderRosters ritorna i club guidati dal leader con tutti i membri.
func (r *Repo) ListLeaderRosters(ctx context.Context, leaderID uuid.UUID) ([]ClubRoster, error) {
	const query = `
SELECT c.id, c.name, m.runner_id, COALESCE(p.full_name, ''), COALESCE(p.avatar_url, ''), m.created_at
FROM run_clubs c
LEFT JOIN run_club_memberships m ON m.club_id = c.id
LEFT JOIN profiles p ON p.id = m.runner_id
WHERE c.leader_id = $1
ORDER BY c.name, c.id, m.created_at`

	return r.queryRosters(ctx, query, leaderID)
}

// queryRosters raggruppa le righe (club, membro) per club.
// Un club senza membri produce una lista vuota, non un membro nullo.
func (r *Repo) queryRosters(ctx context.Context, query string, userID uuid.UUID) ([]ClubRoster, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Error("errore lettura roster", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	rosters := []ClubRoster{}
	for rows.Next() {
		var (
			clubID   uuid.UUID
			clubName string
			memberID uuid.NullUUID
			fullName string
			avatar   string
			joinedAt sql.NullTime
		)
		if err := rows.Scan(&clubID, &clubName, &memberID, &fullName, &avatar, &joinedAt); err != nil {
			return nil, err
		}

		if n := len(rosters); n == 0 || rosters[n-1].ID != clubID {
			rosters = append(rosters, ClubRoster{ID: clubID, Name: clubName, Members: []ClubMember{}})
		}
		if !memberID.Valid {
			continue
		}
		last := &rosters[len(rosters)-1]
		last.Members = append(last.Members, ClubMember{
			ID:        memberID.UUID,
			FullName:  fullName,
			AvatarURL: avatar,
			JoinedAt:  joinedAt.Time,
		})
	}
	return rosters, rows.Err()
}

// ListLeaderClubs ritorna i club del leader con gli ultimi post, senza conteggi.
func (r *Repo) ListLeaderClubs(ctx context.Context, leaderID uuid.UUID) ([]LeaderClub, error) {
	const clubsQuery = `
SELECT id, name, description, location, created_at
FROM run_clubs
WHERE leader_id = $1
ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, clubsQuery, leaderID)
	if err != nil {
		slog.Error("errore lettura club leader", "error", err, "leader_id", leaderID)
		return nil, err
	}
	defer rows.Close()

	clubs := []LeaderClub{}
	index := map[uuid.UUID]int{}
	ids := []string{}
	for rows.Next() {
		c := LeaderClub{LatestPosts: []Post{}}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Location, &c.CreatedAt); err != nil {
			return nil, err
		}
		index[c.ID] = len(clubs)
		ids = append(ids, c.ID.String())
		clubs = append(clubs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(clubs) == 0 {
		return clubs, nil
	}

	const postsQuery = `
SELECT id, club_id, author_id, content, created_at
FROM (
  SELECT id, club_id, author_id, content, created_at,
         ROW_NUMBER() OVER (PARTITION BY club_id ORDER BY created_at DESC) AS rn
  FROM run_club_posts
  WHERE club_id = ANY($1::uuid[])
) latest
WHERE rn <= $2
ORDER BY created_at DESC`

	postRows, err := r.db.QueryContext(ctx, postsQuery, pq.Array(ids), latestPostsPerClub)
	if err != nil {
		slog.Error("errore lettura post dashboard", "error", err, "leader_id", leaderID)
		return nil, err
	}
	defer postRows.Close()

	for postRows.Next() {
		var p Post
		if err := postRows.Scan(&p.ID, &p.ClubID, &p.AuthorID, &p.Content, &p.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[p.ClubID]; ok {
			p.ClubName = clubs[i].Name
			clubs[i].LatestPosts = append(clubs[i].LatestPosts, p)
		}
	}
	return clubs, postRows.Err()
}

// InsertPost pubblica un post nel club.
func (r *Repo) InsertPost(ctx context.Context, post Post) error {
	const query = `
INSERT INTO run_club_posts (id, club_id, author_id, content, created_at)
VALUES ($1, $2, $3, $4, $5)`

	createdAt := post.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, query, post.ID, post.ClubID, post.AuthorID, post.Content, createdAt)
	if err != nil {
		slog.Error("errore insert post", "error", err, "club_id", post.ClubID)
	}
	return err
}

// ListPosts ritorna i post visibili all'utente: club iscritti (runner) o guidati (leader).
func (r *Repo) ListPosts(ctx context.Context, userID uuid.UUID, role Role) ([]Post, error) {
	const runnerQuery = `
SELECT p.id, p.club_id, COALESCE(c.name, ''), p.author_id, COALESCE(a.full_name, ''), p.content, p.created_at
FROM run_club_posts p
LEFT JOIN run_clubs c ON c.id = p.club_id
LEFT JOIN profiles a ON a.id = p.author_id
WHERE p.club_id IN (SELECT club_id FROM run_club_memberships WHERE runner_id = $1)
ORDER BY p.created_at DESC`

	const leaderQuery = `
SELECT p.id, p.club_id, COALESCE(c.name, ''), p.author_id, COALESCE(a.full_name, ''), p.content, p.created_at
FROM run_club_posts p
LEFT JOIN run_clubs c ON c.id = p.club_id
LEFT JOIN profiles a ON a.id = p.author_id
WHERE p.club_id IN (SELECT id FROM run_clubs WHERE leader_id = $1)
ORDER BY p.created_at DESC`

	query := leaderQuery
	if role == RoleRunner {
		query = runnerQuery
	}

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Error("errore lettura post", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.ClubID, &p.ClubName, &p.AuthorID, &p.AuthorName, &p.Content, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetSubscription ritorna il piano dell'utente; senza riga il piano e' free.
func (r *Repo) GetSubscription(ctx context.Context, userID uuid.UUID) (Subscription, error) {
	const query = `SELECT plan_type FROM subscriptions WHERE user_id = $1`

	sub := Subscription{UserID: userID, PlanType: PlanFree}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&sub.PlanType)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, nil
	}
	if err != nil {
		slog.Error("errore lettura abbonamento", "error", err, "user_id", userID)
		return Subscription{}, err
	}
	return sub, nil
}

// CountClubsByLeader conta i club guidati dal leader.
func (r *Repo) CountClubsByLeader(ctx context.Context, leaderID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM run_clubs WHERE leader_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, leaderID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// InsertClub crea un nuovo club guidato da leaderID.
func (r *Repo) InsertClub(ctx context.Context, leaderID uuid.UUID, club NewClub) (uuid.UUID, error) {
	const query = `
INSERT INTO run_clubs (
  id,
  leader_id,
  name,
  description,
  location,
  meeting_days,
  start_time,
  end_time,
  start_location,
  end_location,
  route_details,
  distance,
  created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())`

	id := uuid.New()
	_, err := r.db.ExecContext(
		ctx,
		query,
		id,
		leaderID,
		club.Name,
		club.Description,
		club.Location,
		pq.Array(club.MeetingDays),
		club.StartTime,
		club.EndTime,
		club.StartLocation,
		club.EndLocation,
		club.RouteDetails,
		club.Distance,
	)
	if err != nil {
		slog.Error("errore insert club", "error", err, "leader_id", leaderID)
		return uuid.Nil, err
	}
	return id, nil
}
