package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"RunClubHub/service/club/internal/club"
	"RunClubHub/service/club/internal/config"
	"RunClubHub/service/club/internal/db"
	"RunClubHub/service/club/internal/feed"
	"RunClubHub/service/club/internal/roster"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	logger   = slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg      config.Config
	database *sql.DB
	service  *club.Service

	query  string
	watch  bool
	userID string
)

var rootCmd = &cobra.Command{
	Use:   "club-check",
	Short: "Legge i roster dei club dal DB",
	Long: `club-check interroga il DB del club service e stampa i roster in JSON.
Con --watch resta in ascolto del change feed e ristampa ad ogni modifica.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv(logger)
		cfg = config.Load()

		var err error
		database, err = db.Open(cmd.Context(), cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db connection failed: %w", err)
		}
		service = club.NewService(logger, club.NewRepo(database))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if database != nil {
			database.Close()
		}
	},
}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Elenca i club con il numero di membri",
	RunE:  runExplore,
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Stampa i roster visibili a un utente",
	RunE:  runMembers,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Stampa i club di un leader con gli ultimi post",
	RunE:  runDashboard,
}

func init() {
	exploreCmd.Flags().StringVarP(&query, "query", "q", "", "filtro su nome, descrizione e location")
	exploreCmd.Flags().BoolVarP(&watch, "watch", "w", false, "resta in ascolto del change feed")

	membersCmd.Flags().StringVarP(&userID, "user", "u", "", "id utente (obbligatorio)")
	_ = membersCmd.MarkFlagRequired("user")

	dashboardCmd.Flags().StringVarP(&userID, "user", "u", "", "id del leader (obbligatorio)")
	_ = dashboardCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(exploreCmd, membersCmd, dashboardCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runExplore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if !watch {
		clubs, err := service.ExploreClubs(ctx, query)
		if err != nil {
			return err
		}
		return printJSON(clubs)
	}

	// Watch: bridge LISTEN/NOTIFY -> hub -> view montata.
	hub := feed.NewHub()
	defer hub.Close()
	bridge, err := feed.NewPGBridge(logger, cfg.DBDSN, cfg.FeedChannel, hub)
	if err != nil {
		return fmt.Errorf("feed listener failed: %w", err)
	}

	search := &club.Search{}
	search.Set(query)
	view := club.NewExploreView(service, hub, search, roster.WithLogger(logger), roster.WithReconcileDelay(cfg.ReconcileDelay))

	changed := make(chan struct{}, 1)
	stopWatch := view.Store().Watch(func(uint64) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer stopWatch()

	if err := view.Mount(ctx); err != nil {
		return err
	}
	defer view.Unmount()

	bridgeErr := make(chan error, 1)
	go func() { bridgeErr <- bridge.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-bridgeErr:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case <-changed:
			items, version := view.Store().VersionedSnapshot()
			logger.Info("snapshot", "version", version, "clubs", len(items))
			if err := printJSON(items); err != nil {
				return err
			}
		}
	}
}

func runMembers(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("user id non valido: %w", err)
	}
	rosters, err := service.MemberRosters(cmd.Context(), id)
	if err != nil {
		return err
	}
	return printJSON(rosters)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("user id non valido: %w", err)
	}
	clubs, err := service.LeaderDashboard(cmd.Context(), id)
	if err != nil {
		return err
	}
	return printJSON(clubs)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
