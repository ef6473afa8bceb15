package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RunClubHub/service/club/internal/club"
	"RunClubHub/service/club/internal/config"
	"RunClubHub/service/club/internal/db"
	"RunClubHub/service/club/internal/feed"
	"RunClubHub/service/club/internal/httpapi"
	"RunClubHub/service/club/internal/identity"
	"RunClubHub/service/club/internal/lock"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// healthService e' il nome riportato dal gRPC health check.
const healthService = "runclub.club"

func main() {
	// Bootstrap di logging e config.
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	config.LoadEnv(logger)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB richiesto per dati e change feed.
	database, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		logger.Error("db connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Change feed: LISTEN/NOTIFY -> hub in processo -> view live.
	hub := feed.NewHub()
	defer hub.Close()
	bridge, err := feed.NewPGBridge(logger, cfg.DBDSN, cfg.FeedChannel, hub)
	if err != nil {
		logger.Error("feed listener failed", "error", err)
		os.Exit(1)
	}

	// Lock delle azioni: Redis se configurato, altrimenti in processo.
	var locks lock.Manager
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("redis connection failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		locks = lock.NewRedisLock(client, "runclub:lock:", cfg.ActionLockTTL, 0, 0)
	} else {
		memLocks := lock.NewMemoryLock(cfg.ActionLockTTL)
		defer memLocks.Close()
		locks = memLocks
		logger.Info("REDIS_ADDR non impostato, lock azioni in memoria")
	}

	clubRepo := club.NewRepo(database)
	clubs := club.NewService(logger, clubRepo, club.WithLocks(locks))
	ident, err := identity.NewService(logger, identity.NewRepo(database), clubRepo, cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error("identity setup failed", "error", err)
		os.Exit(1)
	}
	defer ident.Close()
	ident.OnAuthStateChange(func(ev identity.AuthEvent, s identity.Session) {
		logger.Info("auth state", "event", ev, "user_id", s.User.ID)
	})

	gin.SetMode(gin.ReleaseMode)
	handler := httpapi.NewHandler(logger, ident, clubs, hub, cfg.ReconcileDelay)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC solo per health check e reflection.
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("grpc listen failed", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := bridge.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info("club http listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("club grpc listening", "addr", cfg.GRPCAddr)
		return grpcServer.Serve(listener)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown in corso")
		healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("club server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("club server stopped")
}
