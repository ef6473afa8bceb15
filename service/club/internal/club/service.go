package club

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"RunClubHub/service/club/internal/lock"
	"RunClubHub/service/club/internal/roster"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// countConcurrency limita i COUNT paralleli per pagina.
const countConcurrency = 8

// Messaggi mostrati all'utente dalle azioni.
const (
	msgAlreadyMember = "You are already a member of this club."
	msgJoined        = "Successfully joined the club!"
	msgJoinFailed    = "Error joining club. Please try again."
	msgMemberRemoved = "Member removed."
	msgRemoveFailed  = "Error removing member. Please try again."
	msgPostCreated   = "Post published."
	msgPostFailed    = "Error creating post. Please try again."
	msgPostEmpty     = "Post content cannot be empty."
	msgNotLeader     = "Only the club leader can do this."
	msgInProgress    = "Your request is already being processed."
)

// Service applica la logica di dominio usando il repository.
// Qui si mappano errori del DB in errori di dominio e notice per l'utente.
type Service struct {
	logger *slog.Logger
	repo   Repository
	locks  lock.Manager
	now    func() time.Time
}

// ServiceOption configura il Service.
type ServiceOption func(*Service)

// WithLocks serializza join e rimozioni sulla stessa coppia club/utente.
func WithLocks(m lock.Manager) ServiceOption {
	return func(s *Service) { s.locks = m }
}

// NewService crea il servizio di dominio per il club.
func NewService(logger *slog.Logger, repo Repository, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{logger: logger, repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExploreClubs carica tutti i club con il conteggio membri.
// Un conteggio fallito vale 0; il filtro di ricerca si riapplica a ogni refresh.
func (s *Service) ExploreClubs(ctx context.Context, search string) ([]ClubSummary, error) {
	clubs, err := s.repo.ListClubs(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.memberCounts(ctx, len(clubs), func(i int) uuid.UUID { return clubs[i].ID })
	if err != nil {
		return nil, err
	}
	for i := range clubs {
		clubs[i].MemberCount = counts[i]
	}

	return filterClubs(clubs, search), nil
}

// MemberRosters ritorna i club dell'utente con i membri: iscrizioni per il
// runner, club guidati per il leader. Senza profilo la lista e' vuota.
func (s *Service) MemberRosters(ctx context.Context, userID uuid.UUID) ([]ClubRoster, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return []ClubRoster{}, nil
		}
		return nil, err
	}

	if profile.Role == RoleRunner {
		return s.repo.ListRunnerRosters(ctx, userID)
	}
	return s.repo.ListLeaderRosters(ctx, userID)
}

// LeaderDashboard carica i club del leader con conteggi e ultimi post.
func (s *Service) LeaderDashboard(ctx context.Context, leaderID uuid.UUID) ([]LeaderClub, error) {
	clubs, err := s.repo.ListLeaderClubs(ctx, leaderID)
	if err != nil {
		return nil, err
	}

	counts, err := s.memberCounts(ctx, len(clubs), func(i int) uuid.UUID { return clubs[i].ID })
	if err != nil {
		return nil, err
	}
	for i := range clubs {
		clubs[i].MemberCount = counts[i]
		if clubs[i].LatestPosts == nil {
			clubs[i].LatestPosts = []Post{}
		}
	}
	return clubs, nil
}

// Posts ritorna il feed dei post visibili all'utente.
func (s *Service) Posts(ctx context.Context, userID uuid.UUID) ([]Post, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return []Post{}, nil
		}
		return nil, err
	}
	return s.repo.ListPosts(ctx, userID, profile.Role)
}

// Profile ritorna il profilo dell'utente.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// JoinClub iscrive il runner al club con aggiornamento ottimistico del conteggio.
// view puo' essere nil (chiamata senza pagina live).
func (s *Service) JoinClub(ctx context.Context, view *roster.View[ClubSummary], clubID, runnerID uuid.UUID) roster.Notice {
	release, busy := s.acquire(ctx, "join:"+clubID.String()+":"+runnerID.String())
	if busy {
		return roster.Notice{Level: roster.NoticeInfo, Message: msgInProgress}
	}
	defer release()

	return roster.Run(ctx, s.logger, view, roster.Action[ClubSummary]{
		Name: "join_club",
		Exists: func(ctx context.Context) (bool, error) {
			return s.repo.MembershipExists(ctx, clubID, runnerID)
		},
		Mutate: func(ctx context.Context) error {
			return s.repo.InsertMembership(ctx, clubID, runnerID)
		},
		IsDuplicate: isDuplicateMembership,
		TargetID:    clubID.String(),
		Delta: func(c ClubSummary) ClubSummary {
			c.MemberCount++
			return c
		},
		ExistsMessage:  msgAlreadyMember,
		SuccessMessage: msgJoined,
		ErrorMessage:   msgJoinFailed,
	})
}

// RemoveMember toglie un runner da un club del leader.
// Nessun delta ottimistico: lo stato arriva dal re-fetch ritardato o dal feed.
func (s *Service) RemoveMember(ctx context.Context, view *roster.View[ClubRoster], leaderID, clubID, memberID uuid.UUID) roster.Notice {
	if notice, ok := s.requireLeader(ctx, leaderID, clubID); !ok {
		return notice
	}
	release, busy := s.acquire(ctx, "remove:"+clubID.String()+":"+memberID.String())
	if busy {
		return roster.Notice{Level: roster.NoticeInfo, Message: msgInProgress}
	}
	defer release()

	return roster.Run(ctx, s.logger, view, roster.Action[ClubRoster]{
		Name: "remove_member",
		Mutate: func(ctx context.Context) error {
			return s.repo.DeleteMembership(ctx, clubID, memberID)
		},
		SuccessMessage: msgMemberRemoved,
		ErrorMessage:   msgRemoveFailed,
	})
}

// CreatePost pubblica un aggiornamento; il post compare subito in dashboard.
func (s *Service) CreatePost(ctx context.Context, view *roster.View[LeaderClub], clubID, authorID uuid.UUID, content string) roster.Notice {
	content = strings.TrimSpace(content)
	if content == "" {
		return roster.Notice{Level: roster.NoticeInfo, Message: msgPostEmpty}
	}
	if notice, ok := s.requireLeader(ctx, authorID, clubID); !ok {
		return notice
	}

	post := Post{
		ID:        uuid.New(),
		ClubID:    clubID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}

	return roster.Run(ctx, s.logger, view, roster.Action[LeaderClub]{
		Name: "create_post",
		Mutate: func(ctx context.Context) error {
			return s.repo.InsertPost(ctx, post)
		},
		TargetID: clubID.String(),
		Delta: func(c LeaderClub) LeaderClub {
			p := post
			p.ClubName = c.Name
			posts := make([]Post, 0, len(c.LatestPosts)+1)
			posts = append(posts, p)
			c.LatestPosts = append(posts, c.LatestPosts...)
			if len(c.LatestPosts) > latestPostsPerClub {
				c.LatestPosts = c.LatestPosts[:latestPostsPerClub]
			}
			return c
		},
		SuccessMessage: msgPostCreated,
		ErrorMessage:   msgPostFailed,
	})
}

// CreateClub crea un club per il leader; il piano free ne consente uno solo.
func (s *Service) CreateClub(ctx context.Context, leaderID uuid.UUID, in NewClub) (uuid.UUID, error) {
	if err := validateNewClub(&in); err != nil {
		return uuid.Nil, err
	}

	profile, err := s.repo.GetProfile(ctx, leaderID)
	if err != nil {
		return uuid.Nil, err
	}
	if profile.Role != RoleLeader {
		return uuid.Nil, ErrForbidden
	}

	// Conteggio e insert sotto lock: due create concorrenti non superano il limite free.
	release, busy := s.acquire(ctx, "create_club:"+leaderID.String())
	if busy {
		return uuid.Nil, ErrActionInProgress
	}
	defer release()

	sub, err := s.repo.GetSubscription(ctx, leaderID)
	if err != nil {
		return uuid.Nil, err
	}
	if sub.PlanType != PlanPro {
		existing, err := s.repo.CountClubsByLeader(ctx, leaderID)
		if err != nil {
			return uuid.Nil, err
		}
		if existing > 0 {
			return uuid.Nil, ErrFreePlanLimit
		}
	}

	id, err := s.repo.InsertClub(ctx, leaderID, in)
	if err != nil {
		return uuid.Nil, err
	}
	s.logger.Info("club creato", "club_id", id, "leader_id", leaderID)
	return id, nil
}

// requireLeader verifica che leaderID guidi clubID.
func (s *Service) requireLeader(ctx context.Context, leaderID, clubID uuid.UUID) (roster.Notice, bool) {
	owner, err := s.repo.ClubLeader(ctx, clubID)
	if err != nil {
		if errors.Is(err, ErrClubNotFound) {
			return roster.Notice{Level: roster.NoticeError, Message: "Club not found."}, false
		}
		s.logger.Error("errore verifica leader", "error", err, "club_id", clubID)
		return roster.Notice{Level: roster.NoticeError, Message: roster.MessageRetry}, false
	}
	if owner != leaderID {
		return roster.Notice{Level: roster.NoticeError, Message: msgNotLeader}, false
	}
	return roster.Notice{}, true
}

// memberCounts esegue i COUNT in parallelo; un errore vale 0 e si logga.
func (s *Service) memberCounts(ctx context.Context, n int, id func(int) uuid.UUID) ([]int, error) {
	counts := make([]int, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countConcurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			count, err := s.repo.CountMembers(gctx, id(i))
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("errore conteggio membri", "club_id", id(i), "error", err)
				return nil
			}
			counts[i] = count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// acquire prende il lock dell'azione; busy=true se un'altra richiesta e' in corso.
// Senza lock manager, o con lock non raggiungibile, l'azione procede.
func (s *Service) acquire(ctx context.Context, key string) (release func(), busy bool) {
	noop := func() {}
	if s.locks == nil {
		return noop, false
	}
	token, ok, err := s.locks.Acquire(ctx, key)
	if err != nil {
		s.logger.Warn("lock azione non disponibile, si procede", "key", key, "error", err)
		return noop, false
	}
	if !ok {
		return noop, true
	}
	return func() {
		if err := s.locks.Release(context.Background(), key, token); err != nil {
			s.logger.Warn("errore rilascio lock azione", "key", key, "error", err)
		}
	}, false
}

func isDuplicateMembership(err error) bool {
	return errors.Is(err, ErrDuplicateMembership)
}

// filterClubs applica la ricerca su nome, descrizione e location.
func filterClubs(clubs []ClubSummary, search string) []ClubSummary {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return clubs
	}
	out := make([]ClubSummary, 0, len(clubs))
	for _, c := range clubs {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Description), q) ||
			strings.Contains(strings.ToLower(c.Location), q) {
			out = append(out, c)
		}
	}
	return out
}

// validateNewClub applica le invarianti di base del form.
func validateNewClub(in *NewClub) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if in.Name == "" || in.Description == "" || in.Location == "" {
		return errors.Join(ErrInvalidArgument, errors.New("name, description and location are required"))
	}
	if in.MeetingDays == nil {
		in.MeetingDays = []string{}
	}
	return nil
}
