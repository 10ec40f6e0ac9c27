package handler_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/renatodap/coach-context/internal/config"
	"github.com/renatodap/coach-context/internal/handler"
	"github.com/renatodap/coach-context/internal/middleware"
	"github.com/renatodap/coach-context/internal/pkg/jwt"
	"github.com/renatodap/coach-context/internal/repo"
	"github.com/renatodap/coach-context/internal/service"
	"github.com/renatodap/coach-context/internal/testutil"
)

var (
	testJWTSecret     = []byte("test-secret")
	testWebhookSecret = "webhook-secret"
	testAdminKey      = "admin-key"
)

// setupRouter wires the full HTTP surface. A nil db is fine for tests that
// only exercise auth and validation, which reject before any repo call.
func setupRouter(t *testing.T, db *sql.DB, embedder *testutil.FakeEmbedder, rateWindow time.Duration) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	search := config.SearchConfig{DefaultLimit: 10, DefaultThreshold: 0.5, MaxContentChars: 10000}
	embeddingService := service.NewEmbeddingService(
		embedder,
		repo.NewEmbeddingRepo(db),
		repo.NewProfileRepo(db),
		repo.NewWorkoutRepo(db),
		search,
	)
	queueService := service.NewQueueService(embedder, repo.NewQueueRepo(db), repo.NewEmbeddingRepo(db), 10, 3)

	deps := handler.RouterDeps{
		Embeddings:    handler.NewEmbeddingHandler(embeddingService),
		Queue:         handler.NewQueueHandler(queueService),
		JWTSecret:     testJWTSecret,
		WebhookSecret: testWebhookSecret,
		AdminKey:      testAdminKey,
		RateWindow:    rateWindow,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine
}

func userToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, "", testJWTSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var parsed map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}
