package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/renatodap/coach-context/internal/repo"
	"github.com/renatodap/coach-context/internal/service"
	"github.com/renatodap/coach-context/internal/testutil"
)

func TestProcessQueueCountsAndFaultIsolation(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	embedder := testutil.NewFakeEmbedder(3)
	embedder.FailOn = map[string]error{
		"broken item": errors.New("provider rejected input"),
	}
	svc := service.NewQueueService(embedder, repo.NewQueueRepo(db), repo.NewEmbeddingRepo(db), 10, 3)

	testutil.SeedQueueItem(t, db, "u1", "morning run 5k", "workout", "w-1")
	testutil.SeedQueueItem(t, db, "u1", "broken item", "workout", "w-2")
	testutil.SeedQueueItem(t, db, "u1", "evening yoga", "workout", "w-3")

	result, err := svc.ProcessQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, result.Processed)
	require.Equal(t, 1, result.Failed)
	require.Len(t, result.ProcessedItems, 2)
	require.Len(t, result.FailedItems, 1)
	require.Contains(t, result.FailedItems[0].Error, "provider rejected input")

	var status string
	var retries int
	err = db.QueryRow(`SELECT status, retry_count FROM embedding_generation_queue WHERE content_id = 'w-2'`).Scan(&status, &retries)
	require.NoError(t, err)
	require.Equal(t, "failed", status)
	require.Equal(t, 1, retries)

	// successful items landed in the corpus under the content key
	var count int
	err = db.QueryRow(`SELECT count(*) FROM user_context_embeddings WHERE user_id = 'u1'`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestProcessQueueNeverCompletesTwice(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	embedder := testutil.NewFakeEmbedder(3)
	svc := service.NewQueueService(embedder, repo.NewQueueRepo(db), repo.NewEmbeddingRepo(db), 10, 3)

	queueID := testutil.SeedQueueItem(t, db, "u1", "deadlift day", "workout", "w-9")

	first, err := svc.ProcessQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.Processed)
	require.Equal(t, queueID, first.ProcessedItems[0].QueueID)

	// the item is terminal, a second invocation must not touch it
	second, err := svc.ProcessQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, second.Processed)
	require.Equal(t, 0, second.Failed)

	var count int
	err = db.QueryRow(`SELECT count(*) FROM user_context_embeddings WHERE user_id = 'u1'`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestProcessQueueRetriesOnLaterRun(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	embedder := testutil.NewFakeEmbedder(3)
	embedder.FailOn = map[string]error{"flaky": errors.New("transient")}
	svc := service.NewQueueService(embedder, repo.NewQueueRepo(db), repo.NewEmbeddingRepo(db), 10, 3)

	testutil.SeedQueueItem(t, db, "u1", "flaky", "meal", "m-1")

	result, err := svc.ProcessQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)

	// provider recovers, the next scheduled run picks the item back up
	embedder.FailOn = nil
	result, err = svc.ProcessQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, 0, result.Failed)
}

func TestProcessQueueDimensionMismatchFailsItem(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	embedder := testutil.NewFakeEmbedder(768)
	embedder.BadDims = 1536
	svc := service.NewQueueService(embedder, repo.NewQueueRepo(db), repo.NewEmbeddingRepo(db), 10, 3)

	testutil.SeedQueueItem(t, db, "u1", "some workout", "workout", "w-1")

	result, err := svc.ProcessQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.Processed)
	require.Equal(t, 1, result.Failed)
	require.Contains(t, result.FailedItems[0].Error, "dimensions")
}
