package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/renatodap/coach-context/internal/ai"
	"github.com/renatodap/coach-context/internal/config"
	"github.com/renatodap/coach-context/internal/model"
	appErr "github.com/renatodap/coach-context/internal/pkg/errors"
	"github.com/renatodap/coach-context/internal/repo"
)

// WriteOp selects how a generated embedding is persisted. The route decides
// the operation once from the request shape; the store never infers it from
// optional fields.
type WriteOp int

const (
	OpInsert WriteOp = iota
	OpUpdateByID
	OpUpsertByContentKey
)

type GenerateInput struct {
	UserID      string
	ContentType string
	Content     string
	Metadata    map[string]interface{}
	Op          WriteOp
	TargetID    string // row id, only for OpUpdateByID
}

type SearchInput struct {
	UserID       string
	Query        string
	Limit        int
	Threshold    float64
	ContentTypes []string
}

type QueryEmbedding struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model"`
}

type EmbeddingService struct {
	embedder   ai.IEmbedder
	embeddings *repo.EmbeddingRepo
	profiles   *repo.ProfileRepo
	workouts   *repo.WorkoutRepo
	search     config.SearchConfig
}

func NewEmbeddingService(embedder ai.IEmbedder, embeddings *repo.EmbeddingRepo, profiles *repo.ProfileRepo, workouts *repo.WorkoutRepo, search config.SearchConfig) *EmbeddingService {
	return &EmbeddingService{
		embedder:   embedder,
		embeddings: embeddings,
		profiles:   profiles,
		workouts:   workouts,
		search:     search,
	}
}

// Generate embeds content and persists it using the requested write
// operation, then runs the best-effort mirror hooks.
func (s *EmbeddingService) Generate(ctx context.Context, input GenerateInput) (*model.ContextEmbedding, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" || input.ContentType == "" || input.UserID == "" {
		return nil, appErr.ErrInvalid
	}
	if s.search.MaxContentChars > 0 && len(content) > s.search.MaxContentChars {
		return nil, appErr.ErrInvalid
	}
	if input.Op == OpUpdateByID && input.TargetID == "" {
		return nil, appErr.ErrInvalid
	}

	vector, err := s.embedder.Embed(ctx, content, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return nil, fmt.Errorf("generate embedding: %w", err)
	}
	if err := s.checkDimensions(vector); err != nil {
		return nil, err
	}

	emb := &model.ContextEmbedding{
		UserID:      input.UserID,
		ContentType: input.ContentType,
		Content:     content,
		Metadata:    input.Metadata,
		Embedding:   vector,
	}

	var stored *model.ContextEmbedding
	switch input.Op {
	case OpUpdateByID:
		stored, err = s.embeddings.UpdateByID(ctx, input.UserID, input.TargetID, content, input.Metadata, vector)
	case OpUpsertByContentKey:
		stored, err = s.embeddings.UpsertByContentKey(ctx, emb)
	default:
		stored, err = s.embeddings.Insert(ctx, emb)
	}
	if err != nil {
		return nil, err
	}

	s.runMirrorHooks(ctx, stored)
	return stored, nil
}

// EmbedQuery is the lightweight path for embedding ad-hoc text without
// storing anything.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, content string) (*QueryEmbedding, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, appErr.ErrInvalid
	}
	if s.search.MaxContentChars > 0 && len(content) > s.search.MaxContentChars {
		return nil, appErr.ErrInvalid
	}
	vector, err := s.embedder.Embed(ctx, content, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("generate embedding: %w", err)
	}
	return &QueryEmbedding{
		Embedding:  vector,
		Dimensions: len(vector),
		Model:      s.embedder.ModelName(),
	}, nil
}

// Search embeds the query with the same model as the stored corpus and asks
// the store's nearest-neighbor function for ranked matches.
func (s *EmbeddingService) Search(ctx context.Context, input SearchInput) ([]model.SearchResult, time.Duration, error) {
	if strings.TrimSpace(input.Query) == "" || input.UserID == "" {
		return nil, 0, appErr.ErrInvalid
	}
	if input.Limit <= 0 {
		input.Limit = s.search.DefaultLimit
	}
	if input.Threshold <= 0 {
		input.Threshold = s.search.DefaultThreshold
	}
	start := time.Now()
	vector, err := s.embedder.Embed(ctx, input.Query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, 0, fmt.Errorf("embed query: %w", err)
	}
	if err := s.checkDimensions(vector); err != nil {
		return nil, 0, err
	}
	results, err := s.embeddings.Search(ctx, input.UserID, vector, input.Threshold, input.Limit, input.ContentTypes)
	if err != nil {
		return nil, 0, fmt.Errorf("search embeddings: %w", err)
	}
	return results, time.Since(start), nil
}

// checkDimensions is the strict gate in front of the store. The generator
// only warns on a mismatched vector; a vector of the wrong length must never
// reach the corpus.
func (s *EmbeddingService) checkDimensions(vector []float32) error {
	expected := s.embedder.Dimensions()
	if expected > 0 && len(vector) != expected {
		return fmt.Errorf("%w: embedding has %d dimensions, corpus expects %d", appErr.ErrInvalid, len(vector), expected)
	}
	return nil
}

type mirrorHook struct {
	name string
	run  func(ctx context.Context) error
}

// runMirrorHooks copies the vector onto denormalized rows. Hooks are
// best-effort: a failure is logged and never fails the primary write.
func (s *EmbeddingService) runMirrorHooks(ctx context.Context, emb *model.ContextEmbedding) {
	var hooks []mirrorHook
	if emb.ContentType == model.ContentTypeWorkout {
		if completionID, ok := emb.Metadata[model.MetaWorkoutCompletionID].(string); ok && completionID != "" {
			hooks = append(hooks, mirrorHook{
				name: "workout_completion_embedding",
				run: func(ctx context.Context) error {
					return s.workouts.UpdateCompletionEmbedding(ctx, emb.UserID, completionID, emb.Embedding)
				},
			})
		}
	}
	if emb.ContentType == model.ContentTypeGoal {
		hooks = append(hooks, mirrorHook{
			name: "profile_goals_embedding",
			run: func(ctx context.Context) error {
				return s.profiles.UpdateGoalsEmbedding(ctx, emb.UserID, emb.Embedding)
			},
		})
	}
	for _, hook := range hooks {
		if err := hook.run(ctx); err != nil {
			logutil.GetLogger(ctx).Warn("mirror write failed",
				zap.String("hook", hook.name),
				zap.String("user_id", emb.UserID),
				zap.String("content_type", emb.ContentType),
				zap.Error(err),
			)
		}
	}
}
