package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/renatodap/coach-context/internal/pkg/errors"
	"github.com/renatodap/coach-context/internal/repo"
	"github.com/renatodap/coach-context/internal/testutil"
)

func TestQueueRepoClaimExclusivity(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	queue := repo.NewQueueRepo(db)
	ctx := context.Background()

	testutil.SeedQueueItem(t, db, "user-1", "morning workout", "workout", "w-1")
	testutil.SeedQueueItem(t, db, "user-1", "weekly goal", "goal", "g-1")

	claimed, err := queue.ClaimPending(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	// everything is processing now, a second claim gets nothing
	again, err := queue.ClaimPending(ctx, 10, 3)
	require.NoError(t, err)
	require.Empty(t, again)
}

func TestQueueRepoCompleteOnlyOnce(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	queue := repo.NewQueueRepo(db)
	ctx := context.Background()

	testutil.SeedQueueItem(t, db, "user-1", "lunch", "meal", "m-1")
	claimed, err := queue.ClaimPending(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, queue.Complete(ctx, claimed[0].QueueID))
	require.ErrorIs(t, queue.Complete(ctx, claimed[0].QueueID), appErr.ErrConflict)
}

func TestQueueRepoFailAndRequeue(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	queue := repo.NewQueueRepo(db)
	ctx := context.Background()

	testutil.SeedQueueItem(t, db, "user-1", "dinner", "meal", "m-2")
	claimed, err := queue.ClaimPending(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, 0, claimed[0].RetryCount)

	require.NoError(t, queue.Fail(ctx, claimed[0].QueueID, "provider timeout"))

	status, err := queue.Status(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 0, status.Pending)
	require.Equal(t, 1, status.FailedRetryable)

	requeued, err := queue.RequeueFailed(ctx, 3)
	require.NoError(t, err)
	require.EqualValues(t, 1, requeued)

	claimed, err = queue.ClaimPending(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, 1, claimed[0].RetryCount)
	require.Equal(t, "provider timeout", claimed[0].ErrorMsg)
}

func TestQueueRepoRetryBudgetExcludesExhausted(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	queue := repo.NewQueueRepo(db)
	ctx := context.Background()

	queueID := testutil.SeedQueueItem(t, db, "user-1", "snack", "meal", "m-3")
	for i := 0; i < 3; i++ {
		claimed, err := queue.ClaimPending(ctx, 1, 3)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		require.NoError(t, queue.Fail(ctx, claimed[0].QueueID, "still broken"))
		_, err = queue.RequeueFailed(ctx, 3)
		require.NoError(t, err)
	}

	// retry_count is 3 now: no longer claimable, no longer counted retryable
	claimed, err := queue.ClaimPending(ctx, 1, 3)
	require.NoError(t, err)
	require.Empty(t, claimed)

	status, err := queue.Status(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 0, status.FailedRetryable)

	var retries int
	require.NoError(t, db.QueryRow(`SELECT retry_count FROM embedding_generation_queue WHERE queue_id = $1`, queueID).Scan(&retries))
	require.Equal(t, 3, retries)
}
