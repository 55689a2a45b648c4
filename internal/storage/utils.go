package storage

import (
	"fmt"
	"os"
)

// InitStore opens a PostgresStore. An empty connection string falls back to
// the DB_* environment variables.
func InitStore(dbConnStr string) (*PostgresStore, error) {
	if dbConnStr == "" {
		dbConnStr = connStrFromEnv()
	}
	store, err := NewPostgresStore(dbConnStr)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func connStrFromEnv() string {
	get := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		get("DB_USERNAME", "protrax"),
		get("DB_PASSWORD", "protrax"),
		get("DB_HOST", "localhost"),
		get("DB_PORT", "5432"),
		get("DB_NAME", "protrax"))
}
