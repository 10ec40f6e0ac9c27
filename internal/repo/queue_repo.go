package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/renatodap/coach-context/internal/model"
	appErr "github.com/renatodap/coach-context/internal/pkg/errors"
	"github.com/renatodap/coach-context/internal/pkg/dbutil"
)

type QueueRepo struct {
	db *sql.DB
}

func NewQueueRepo(db *sql.DB) *QueueRepo {
	return &QueueRepo{db: db}
}

const queueColumns = "queue_id, user_id, content, content_type, content_id, status, retry_count, COALESCE(error_message, ''), created_at, updated_at"

// ClaimPending atomically flips up to batch pending items to processing and
// returns them. SKIP LOCKED keeps concurrent invocations from claiming the
// same item; terminal and retry-exhausted items are never picked up.
func (r *QueueRepo) ClaimPending(ctx context.Context, batch, maxRetries int) ([]model.QueueItem, error) {
	const query = `
		UPDATE embedding_generation_queue
		SET status = 'processing', updated_at = now()
		WHERE queue_id IN (
			SELECT queue_id FROM embedding_generation_queue
			WHERE status = 'pending' AND retry_count < $1
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + queueColumns
	rows, err := r.db.QueryContext(ctx, query, maxRetries, batch)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.QueueItem
	for rows.Next() {
		var item model.QueueItem
		if err := rows.Scan(&item.QueueID, &item.UserID, &item.Content, &item.ContentType, &item.ContentID,
			&item.Status, &item.RetryCount, &item.ErrorMsg, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Complete transitions a claimed item to completed. Guarding on the
// processing status means an item can be completed at most once.
func (r *QueueRepo) Complete(ctx context.Context, queueID string) error {
	const query = `
		UPDATE embedding_generation_queue
		SET status = 'completed', error_message = NULL, updated_at = now()
		WHERE queue_id = $1 AND status = 'processing'
	`
	res, err := r.db.ExecContext(ctx, query, queueID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrConflict
	}
	return nil
}

// Fail records the error and bumps retry_count. The item stays failed for
// the rest of this run; RequeueFailed makes it claimable again later.
func (r *QueueRepo) Fail(ctx context.Context, queueID, errorMessage string) error {
	const query = `
		UPDATE embedding_generation_queue
		SET status = 'failed', error_message = $1, retry_count = retry_count + 1, updated_at = now()
		WHERE queue_id = $2 AND status = 'processing'
	`
	_, err := r.db.ExecContext(ctx, query, errorMessage, queueID)
	return err
}

// RequeueFailed returns failed items under the retry budget to pending.
// Invoked at the start of each processing run so earlier failures get
// another attempt on the next schedule, never within the same run.
func (r *QueueRepo) RequeueFailed(ctx context.Context, maxRetries int) (int64, error) {
	const query = `
		UPDATE embedding_generation_queue
		SET status = 'pending', updated_at = now()
		WHERE status = 'failed' AND retry_count < $1
	`
	res, err := r.db.ExecContext(ctx, query, maxRetries)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *QueueRepo) Status(ctx context.Context, maxRetries int) (*model.QueueStatus, error) {
	status := &model.QueueStatus{}
	var err error
	if status.Pending, err = r.countWhere(ctx, map[string]interface{}{"status": model.QueueStatusPending}); err != nil {
		return nil, err
	}
	if status.Processing, err = r.countWhere(ctx, map[string]interface{}{"status": model.QueueStatusProcessing}); err != nil {
		return nil, err
	}
	if status.FailedRetryable, err = r.countWhere(ctx, map[string]interface{}{
		"status":        model.QueueStatusFailed,
		"retry_count <": maxRetries,
	}); err != nil {
		return nil, err
	}
	return status, nil
}

func (r *QueueRepo) countWhere(ctx context.Context, where map[string]interface{}) (int, error) {
	sqlStr, args, err := builder.BuildSelect("embedding_generation_queue", where, []string{"count(*)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
