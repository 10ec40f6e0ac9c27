package testutil

import (
	"database/sql"
	"testing"
)

// SeedQueueItem inserts a pending queue row the way the external producer
// (a database trigger in production) would.
func SeedQueueItem(t *testing.T, db *sql.DB, userID, content, contentType, contentID string) string {
	t.Helper()
	const query = `
		INSERT INTO embedding_generation_queue (user_id, content, content_type, content_id)
		VALUES ($1, $2, $3, $4)
		RETURNING queue_id
	`
	var queueID string
	if err := db.QueryRow(query, userID, content, contentType, contentID).Scan(&queueID); err != nil {
		t.Fatalf("seed queue item: %v", err)
	}
	return queueID
}
