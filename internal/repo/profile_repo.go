package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// UpdateGoalsEmbedding overwrites the single goals_embedding slot on the
// user's profile. The profile holds only the latest goal vector, never a
// history.
func (r *ProfileRepo) UpdateGoalsEmbedding(ctx context.Context, userID string, embedding []float32) error {
	const query = `
		INSERT INTO profiles (id, goals_embedding)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET goals_embedding = EXCLUDED.goals_embedding
	`
	_, err := r.db.ExecContext(ctx, query, userID, pgvector.NewVector(embedding))
	return err
}

func (r *ProfileRepo) GetGoalsEmbedding(ctx context.Context, userID string) ([]float32, error) {
	const query = `SELECT goals_embedding FROM profiles WHERE id = $1`
	var vector pgvector.Vector
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&vector); err != nil {
		return nil, err
	}
	return vector.Slice(), nil
}
