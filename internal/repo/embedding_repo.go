package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/renatodap/coach-context/internal/model"
	appErr "github.com/renatodap/coach-context/internal/pkg/errors"
)

type EmbeddingRepo struct {
	db *sql.DB
}

func NewEmbeddingRepo(db *sql.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

const embeddingColumns = "id, user_id, content_type, content, metadata, embedding, created_at, updated_at"

func (r *EmbeddingRepo) Insert(ctx context.Context, emb *model.ContextEmbedding) (*model.ContextEmbedding, error) {
	metadata, err := marshalMetadata(emb.Metadata)
	if err != nil {
		return nil, err
	}
	const query = `
		INSERT INTO user_context_embeddings (user_id, content_type, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + embeddingColumns
	row := r.db.QueryRowContext(ctx, query,
		emb.UserID, emb.ContentType, emb.Content, metadata, pgvector.NewVector(emb.Embedding))
	return scanEmbedding(row)
}

// UpdateByID rewrites content, metadata and vector of a row owned by userID.
func (r *EmbeddingRepo) UpdateByID(ctx context.Context, userID, id string, content string, metadata map[string]interface{}, embedding []float32) (*model.ContextEmbedding, error) {
	blob, err := marshalMetadata(metadata)
	if err != nil {
		return nil, err
	}
	const query = `
		UPDATE user_context_embeddings
		SET content = $1, metadata = $2, embedding = $3, updated_at = now()
		WHERE user_id = $4 AND id = $5
		RETURNING ` + embeddingColumns
	row := r.db.QueryRowContext(ctx, query,
		content, blob, pgvector.NewVector(embedding), userID, id)
	result, err := scanEmbedding(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return result, err
}

// UpsertByContentKey updates the row matching (user_id, content_type,
// metadata->>'contentId') in place, inserting when no such row exists.
// This is the dedup path: a logical piece of content keeps a single row.
func (r *EmbeddingRepo) UpsertByContentKey(ctx context.Context, emb *model.ContextEmbedding) (*model.ContextEmbedding, error) {
	contentKey := emb.ContentKey()
	if contentKey == "" {
		return nil, fmt.Errorf("metadata.contentId is required for content-key upsert")
	}
	metadata, err := marshalMetadata(emb.Metadata)
	if err != nil {
		return nil, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	const lookup = `
		SELECT id FROM user_context_embeddings
		WHERE user_id = $1 AND content_type = $2 AND metadata->>'contentId' = $3
		FOR UPDATE
	`
	var existingID string
	err = tx.QueryRowContext(ctx, lookup, emb.UserID, emb.ContentType, contentKey).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		const insert = `
			INSERT INTO user_context_embeddings (user_id, content_type, content, metadata, embedding)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + embeddingColumns
		row := tx.QueryRowContext(ctx, insert,
			emb.UserID, emb.ContentType, emb.Content, metadata, pgvector.NewVector(emb.Embedding))
		result, err := scanEmbedding(row)
		if err != nil {
			return nil, err
		}
		return result, tx.Commit()
	case err != nil:
		return nil, err
	}

	const update = `
		UPDATE user_context_embeddings
		SET content = $1, metadata = $2, embedding = $3, updated_at = now()
		WHERE id = $4
		RETURNING ` + embeddingColumns
	row := tx.QueryRowContext(ctx, update,
		emb.Content, metadata, pgvector.NewVector(emb.Embedding), existingID)
	result, err := scanEmbedding(row)
	if err != nil {
		return nil, err
	}
	return result, tx.Commit()
}

// Search delegates nearest-neighbor ranking to the search_user_context SQL
// function (cosine similarity over pgvector), scoped to one user.
func (r *EmbeddingRepo) Search(ctx context.Context, userID string, query []float32, threshold float64, limit int, contentTypes []string) ([]model.SearchResult, error) {
	const call = `
		SELECT id, content_type, content, metadata, similarity
		FROM search_user_context($1, $2, $3, $4, $5)
	`
	var filter interface{}
	if len(contentTypes) > 0 {
		filter = pq.Array(contentTypes)
	}
	rows, err := r.db.QueryContext(ctx, call,
		pgvector.NewVector(query), userID, threshold, limit, filter)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	results := make([]model.SearchResult, 0, limit)
	for rows.Next() {
		var item model.SearchResult
		var metadata []byte
		if err := rows.Scan(&item.ID, &item.ContentType, &item.Content, &metadata, &item.Similarity); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
				return nil, err
			}
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func scanEmbedding(row *sql.Row) (*model.ContextEmbedding, error) {
	var emb model.ContextEmbedding
	var metadata []byte
	var vector pgvector.Vector
	err := row.Scan(&emb.ID, &emb.UserID, &emb.ContentType, &emb.Content, &metadata, &vector, &emb.CreatedAt, &emb.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &emb.Metadata); err != nil {
			return nil, err
		}
	}
	emb.Embedding = vector.Slice()
	return &emb, nil
}

func marshalMetadata(metadata map[string]interface{}) (string, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	blob, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}
