package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"RunClubHub/service/club/internal/config"
	"RunClubHub/service/club/internal/db"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 1) Carica env e apre il DB.
	config.LoadEnv(logger)
	cfg := config.Load()

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		logger.Error("db connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// 2) Legge i file SQL da CLI ed esegue ognuno in transazione.
	files := os.Args[1:]
	if len(files) == 0 {
		logger.Error("nessun file sql passato", "usage", "go run ./service/club/cmd/migrate service/club/migrations/001_init.sql [file2.sql]")
		os.Exit(1)
	}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Error("lettura sql fallita", "file", file, "error", err)
			os.Exit(1)
		}

		execCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = db.ExecFile(execCtx, database, string(content))
		cancel()
		if err != nil {
			logger.Error("esecuzione sql fallita", "file", file, "error", err)
			os.Exit(1)
		}
		logger.Info("sql eseguito", "file", file)
	}
}
