package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config contiene le impostazioni runtime per club-svc.
type Config struct {
	HTTPAddr       string
	GRPCAddr       string
	DBDSN          string
	JWTSecret      string
	SessionTTL     time.Duration
	ReconcileDelay time.Duration
	FeedChannel    string
	RedisAddr      string
	ActionLockTTL  time.Duration
}

// LoadEnv carica il file .env indicato da GO_DOTENV_PATH, se presente.
// Le variabili del file sovrascrivono quelle del processo.
func LoadEnv(logger *slog.Logger) {
	envPath := os.Getenv("GO_DOTENV_PATH")
	if envPath == "" {
		envPath = "service/club/.env"
	}
	if err := godotenv.Overload(envPath); err != nil {
		logger.Warn("impossibile caricare .env", "path", envPath, "error", err)
		return
	}
	logger.Info(".env caricato", "path", envPath)
}

// Load legge le variabili d'ambiente con default minimi.
func Load() Config {
	dbDSN := os.Getenv("DB_DSN")
	if dbDSN == "" {
		dbDSN = buildDSN()
	}

	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:       getEnv("GRPC_ADDR", ":50061"),
		DBDSN:          dbDSN,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		SessionTTL:     getDuration("SESSION_TTL", time.Hour),
		ReconcileDelay: getDuration("RECONCILE_DELAY", 100*time.Millisecond),
		FeedChannel:    getEnv("FEED_CHANNEL", "runclub_changes"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		ActionLockTTL:  getDuration("ACTION_LOCK_TTL", 10*time.Second),
	}
}

// getEnv ritorna il fallback quando la variabile non è presente.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDuration accetta il formato di time.ParseDuration; valori invalidi usano il fallback.
func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("durata non valida, uso default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return d
}

func buildDSN() string {
	host := os.Getenv("DB_HOST")
	port := getEnv("DB_PORT", "5432")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	name := os.Getenv("DB_NAME")
	sslmode := getEnv("DB_SSLMODE", "require")
	if host == "" || user == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
}
