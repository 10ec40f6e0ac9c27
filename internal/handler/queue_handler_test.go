package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/renatodap/coach-context/internal/testutil"
)

func TestProcessQueueRequiresWebhookSecret(t *testing.T) {
	router := setupRouter(t, nil, testutil.NewFakeEmbedder(3), 0)

	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/embeddings/process-queue", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized", body["error"])

	rec, body = doJSON(t, router, http.MethodPost, "/api/v1/embeddings/process-queue", "wrong-secret", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized", body["error"])

	// a user token is not a service secret
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/embeddings/process-queue", userToken(t, "u1"), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQueueStatusRequiresAdminKey(t *testing.T) {
	router := setupRouter(t, nil, testutil.NewFakeEmbedder(3), 0)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/embeddings/process-queue", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/embeddings/process-queue", testWebhookSecret, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProcessQueueEndpoint(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	router := setupRouter(t, db, testutil.NewFakeEmbedder(3), 0)

	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/embeddings/process-queue", testWebhookSecret, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "No items to process", body["message"])
	require.Equal(t, float64(0), body["processed"])

	testutil.SeedQueueItem(t, db, "u1", "pushups 3x15", "workout", "w-1")
	testutil.SeedQueueItem(t, db, "u1", "salmon bowl", "meal", "m-1")

	rec, body = doJSON(t, router, http.MethodPost, "/api/v1/embeddings/process-queue", testWebhookSecret, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Processing complete", body["message"])
	require.Equal(t, float64(2), body["processed"])
	require.Equal(t, float64(0), body["failed"])
	require.Len(t, body["processedItems"], 2)

	rec, body = doJSON(t, router, http.MethodGet, "/api/v1/embeddings/process-queue", testAdminKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", body["status"])
	queue := body["queue"].(map[string]interface{})
	require.Equal(t, float64(0), queue["pending"])
	require.Equal(t, float64(0), queue["processing"])
	require.Equal(t, float64(0), queue["failed_retryable"])
}
