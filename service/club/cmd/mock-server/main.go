package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RunClubHub/service/club/internal/club"
	"RunClubHub/service/club/internal/feed"
	"RunClubHub/service/club/internal/httpapi"
	"RunClubHub/service/club/internal/identity"
	"RunClubHub/service/club/internal/lock"
	"RunClubHub/service/club/internal/roster"
	"github.com/google/uuid"
)

// Secret usato quando JWT_SECRET non e' impostato: solo per uso locale.
const mockSecret = "mock-runclub-secret"

// Mock in memoria del club-svc: stessa API HTTP, nessun DB.
// Le scritture generano eventi sull'hub come farebbero i trigger.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8081"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = mockSecret
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := feed.NewHub()
	defer hub.Close()
	repo := club.NewMemoryRepo(hub)
	locks := lock.NewMemoryLock(10 * time.Second)
	defer locks.Close()
	clubs := club.NewService(logger, repo, club.WithLocks(locks))
	ident, err := identity.NewService(logger, identity.NewMemoryStore(repo), repo, secret, 12*time.Hour)
	if err != nil {
		logger.Error("identity setup failed", "error", err)
		os.Exit(1)
	}
	defer ident.Close()

	if err := seed(ctx, logger, ident, clubs, repo); err != nil {
		logger.Error("seed fallito", "error", err)
		os.Exit(1)
	}

	handler := httpapi.NewHandler(logger, ident, clubs, hub, 50*time.Millisecond)
	server := &http.Server{Addr: addr, Handler: handler.Router(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("mock club http listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http serve failed", "error", err)
		os.Exit(1)
	}
}

// seed crea un leader pro con due club e un runner iscritto al primo.
func seed(ctx context.Context, logger *slog.Logger, ident *identity.Service, clubs *club.Service, repo *club.MemoryRepo) error {
	leader, err := ident.SignUp(ctx, identity.Credentials{Email: "leader@runclub.local", Password: "password", FullName: "Lena Leader", Role: club.RoleLeader})
	if err != nil {
		return fmt.Errorf("leader: %w", err)
	}
	runner, err := ident.SignUp(ctx, identity.Credentials{Email: "runner@runclub.local", Password: "password", FullName: "Remo Runner", Role: club.RoleRunner})
	if err != nil {
		return fmt.Errorf("runner: %w", err)
	}
	leaderID := leader.Session.User.ID
	runnerID := runner.Session.User.ID
	repo.SetPlan(leaderID, club.PlanPro)

	var first uuid.UUID
	for i, c := range []club.NewClub{
		{Name: "Riverside Runners", Description: "Corsa lenta lungo il fiume", Location: "Torino", MeetingDays: []string{"Tuesday", "Thursday"}, StartTime: "07:00", Distance: "8km"},
		{Name: "Hill Repeats", Description: "Ripetute in salita", Location: "Torino", MeetingDays: []string{"Saturday"}, StartTime: "08:30", Distance: "10km"},
	} {
		id, err := clubs.CreateClub(ctx, leaderID, c)
		if err != nil {
			return fmt.Errorf("club %q: %w", c.Name, err)
		}
		if i == 0 {
			first = id
		}
	}

	if n := clubs.JoinClub(ctx, nil, first, runnerID); n.Level == roster.NoticeError {
		return fmt.Errorf("join: %s", n.Message)
	}
	if n := clubs.CreatePost(ctx, nil, first, leaderID, "Benvenuti! Ci vediamo martedi' alle 7."); n.Level == roster.NoticeError {
		return fmt.Errorf("post: %s", n.Message)
	}

	logger.Info("seed pronto",
		"leader_email", "leader@runclub.local", "leader_token", leader.Session.AccessToken,
		"runner_email", "runner@runclub.local", "runner_token", runner.Session.AccessToken,
		"password", "password",
	)
	return nil
}
