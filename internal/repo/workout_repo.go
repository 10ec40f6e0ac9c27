package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	appErr "github.com/renatodap/coach-context/internal/pkg/errors"
)

type WorkoutRepo struct {
	db *sql.DB
}

func NewWorkoutRepo(db *sql.DB) *WorkoutRepo {
	return &WorkoutRepo{db: db}
}

// UpdateCompletionEmbedding copies a workout vector onto the denormalized
// workout_completions row so activity queries can rank without a join.
func (r *WorkoutRepo) UpdateCompletionEmbedding(ctx context.Context, userID, completionID string, embedding []float32) error {
	const query = `
		UPDATE workout_completions
		SET embedding = $1
		WHERE id = $2 AND user_id = $3
	`
	res, err := r.db.ExecContext(ctx, query, pgvector.NewVector(embedding), completionID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
