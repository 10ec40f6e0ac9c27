package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/renatodap/coach-context/internal/config"
	"github.com/renatodap/coach-context/internal/db"
)

func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "coach",
		Password: "coach_pass",
		DBName:   "coach_context_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	cleanup := func() {
		for _, table := range []string{"user_context_embeddings", "embedding_generation_queue", "profiles", "workout_completions"} {
			_, _ = conn.Exec("TRUNCATE TABLE " + table)
		}
		_ = conn.Close()
	}
	return conn, cleanup
}
