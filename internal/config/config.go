package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the full set of environment-driven knobs for the service,
// per §6. godotenv.Load is best-effort: a missing .env is not fatal, it
// just means the process relies on the ambient environment.
type Config struct {
	DatabaseURL string
	Port        string

	CSVPath               string
	ImportTotalRows       int64
	ImportBatchSize       int
	ImportProgressEveryMs int
	ImportHighWaterMark   int
	ImportResumeOverlap   int64
	ImportRecentLimit     int
	SSEHeartbeatMs        int
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        getenv("PORT", "8080"),

		CSVPath:               os.Getenv("CSV_PATH"),
		ImportTotalRows:       getenvInt64("IMPORT_TOTAL_ROWS", 2_000_000),
		ImportBatchSize:       getenvInt("IMPORT_BATCH_SIZE", 1000),
		ImportProgressEveryMs: getenvInt("IMPORT_PROGRESS_EVERY_MS", 1000),
		ImportHighWaterMark:   getenvInt("IMPORT_HIGH_WATER_MARK", 1_048_576),
		ImportResumeOverlap:   getenvInt64("IMPORT_RESUME_OVERLAP", 1_048_576),
		ImportRecentLimit:     getenvInt("IMPORT_RECENT_LIMIT", 20),
		SSEHeartbeatMs:        getenvInt("SSE_HEARTBEAT_MS", 15000),
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getenvInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
