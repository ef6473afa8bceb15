package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"RunClubHub/service/club/internal/club"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Profiles e' la parte del data service che gestisce i profili.
type Profiles interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (club.Profile, error)
	InsertProfile(ctx context.Context, profile club.Profile) error
}

// claims sono i campi del token di sessione.
type claims struct {
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Service gestisce registrazione, login e sessioni.
// Il token e' valido solo finche' la sua sessione e' nella tabella in memoria.
type Service struct {
	logger   *slog.Logger
	users    UserStore
	profiles Profiles
	secret   []byte
	ttl      time.Duration
	sessions *ttlcache.Cache[string, Session]
	now      func() time.Time

	mu        sync.Mutex
	listeners map[int]func(AuthEvent, Session)
	nextID    int
	stopOnce  sync.Once
}

// NewService crea il servizio e avvia la scadenza automatica delle sessioni.
func NewService(logger *slog.Logger, users UserStore, profiles Profiles, secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		logger:    logger,
		users:     users,
		profiles:  profiles,
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
		listeners: map[int]func(AuthEvent, Session){},
	}
	s.sessions = ttlcache.New[string, Session](
		ttlcache.WithTTL[string, Session](ttl),
		// la scadenza resta quella del token, la lettura non la estende
		ttlcache.WithDisableTouchOnHit[string, Session](),
	)
	s.sessions.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, Session]) {
		if reason == ttlcache.EvictionReasonExpired {
			s.emit(EventSessionExpired, item.Value())
		}
	})
	go s.sessions.Start()

	return s, nil
}

// Close ferma il loop di scadenza delle sessioni.
func (s *Service) Close() {
	s.stopOnce.Do(s.sessions.Stop)
}

// SignUp crea l'utente, garantisce il profilo e apre una sessione.
// Se il profilo non si puo' creare l'utente viene rimosso.
func (s *Service) SignUp(ctx context.Context, cred Credentials) (SignUpResult, error) {
	email, err := normalizeEmail(cred.Email)
	if err != nil {
		return SignUpResult{}, err
	}
	if len(cred.Password) < minPasswordLength {
		return SignUpResult{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidArgument, minPasswordLength)
	}
	if !cred.Role.Valid() {
		return SignUpResult{}, fmt.Errorf("%w: role must be runner or leader", ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cred.Password), bcrypt.DefaultCost)
	if err != nil {
		return SignUpResult{}, err
	}

	userID := uuid.New()
	if err := s.users.CreateUser(ctx, userID, email, string(hash)); err != nil {
		return SignUpResult{}, err
	}

	if err := s.ensureProfile(ctx, club.Profile{ID: userID, Role: cred.Role, FullName: strings.TrimSpace(cred.FullName)}); err != nil {
		s.logger.Error("creazione profilo fallita", "error", err, "user_id", userID)
		if delErr := s.users.DeleteUser(ctx, userID); delErr != nil {
			s.logger.Error("rollback utente fallito", "error", delErr, "user_id", userID)
		}
		return SignUpResult{}, fmt.Errorf("failed to create profile: %w", err)
	}

	session, err := s.open(User{ID: userID, Email: email, Role: cred.Role})
	if err != nil {
		return SignUpResult{}, err
	}
	s.logger.Info("utente registrato", "user_id", userID, "role", cred.Role)
	return SignUpResult{Session: session, Redirect: RedirectFor(cred.Role)}, nil
}

// ensureProfile crea il profilo se manca; un duplicato concorrente va bene.
func (s *Service) ensureProfile(ctx context.Context, profile club.Profile) error {
	_, err := s.profiles.GetProfile(ctx, profile.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, club.ErrProfileNotFound) {
		return err
	}

	err = s.profiles.InsertProfile(ctx, profile)
	if errors.Is(err, club.ErrDuplicateProfile) {
		return nil
	}
	return err
}

// SignInWithPassword verifica le credenziali e apre una sessione.
func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}

	user, hash, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	return s.open(user)
}

// GetSession valida il token e ritorna la sessione attiva.
func (s *Service) GetSession(_ context.Context, token string) (Session, error) {
	c, err := s.parse(token, false)
	if err != nil {
		return Session{}, err
	}

	item := s.sessions.Get(c.SessionID)
	if item == nil {
		return Session{}, ErrNoSession
	}
	return item.Value(), nil
}

// GetUser ritorna l'utente del token con il ruolo letto dal DB.
func (s *Service) GetUser(ctx context.Context, token string) (User, error) {
	session, err := s.GetSession(ctx, token)
	if err != nil {
		return User{}, err
	}

	user, err := s.users.UserByID(ctx, session.User.ID)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrUnauthenticated
	}
	return user, err
}

// SignOut revoca la sessione del token. Un token scaduto si puo' comunque chiudere.
func (s *Service) SignOut(_ context.Context, token string) error {
	c, err := s.parse(token, true)
	if err != nil {
		return err
	}

	item := s.sessions.Get(c.SessionID)
	if item == nil {
		return ErrNoSession
	}
	s.sessions.Delete(c.SessionID)
	s.emit(EventSignedOut, item.Value())
	return nil
}

// OnAuthStateChange registra fn per ogni cambio di sessione.
// La funzione ritornata rimuove la registrazione ed e' idempotente.
func (s *Service) OnAuthStateChange(fn func(AuthEvent, Session)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// open firma un token e registra la sessione.
func (s *Service) open(user User) (Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	sid := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:     user.Email,
		Role:      string(user.Role),
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Session{}, err
	}

	session := Session{ID: sid, AccessToken: signed, User: user, ExpiresAt: expiresAt}
	s.sessions.Set(sid, session, ttlcache.DefaultTTL)
	s.emit(EventSignedIn, session)
	return session, nil
}

// parse verifica firma e algoritmo; skipExpiry ignora solo la scadenza.
func (s *Service) parse(token string, skipExpiry bool) (*claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if skipExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		s.logger.Debug("token non valido", "error", err)
		return nil, ErrUnauthenticated
	}
	if c.SessionID == "" {
		return nil, ErrUnauthenticated
	}
	return &c, nil
}

// emit notifica i listener fuori dal lock.
func (s *Service) emit(event AuthEvent, session Session) {
	s.mu.Lock()
	fns := make([]func(AuthEvent, Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidArgument)
	}
	return email, nil
}
