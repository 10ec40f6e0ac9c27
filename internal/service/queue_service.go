package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/renatodap/coach-context/internal/ai"
	"github.com/renatodap/coach-context/internal/model"
	"github.com/renatodap/coach-context/internal/repo"
)

type ProcessedItem struct {
	QueueID     string `json:"queue_id"`
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
}

type FailedItem struct {
	QueueID string `json:"queue_id"`
	Error   string `json:"error"`
}

type ProcessResult struct {
	Processed      int             `json:"processed"`
	Failed         int             `json:"failed"`
	ProcessedItems []ProcessedItem `json:"processedItems"`
	FailedItems    []FailedItem    `json:"failedItems"`
}

type QueueService struct {
	embedder   ai.IEmbedder
	queue      *repo.QueueRepo
	embeddings *repo.EmbeddingRepo
	batchSize  int
	maxRetries int
}

func NewQueueService(embedder ai.IEmbedder, queue *repo.QueueRepo, embeddings *repo.EmbeddingRepo, batchSize, maxRetries int) *QueueService {
	return &QueueService{
		embedder:   embedder,
		queue:      queue,
		embeddings: embeddings,
		batchSize:  batchSize,
		maxRetries: maxRetries,
	}
}

// ProcessQueue claims one batch and works through it sequentially. Items are
// isolated: one failure is recorded on that item and the loop moves on.
// Failures are never retried within the run that recorded them.
func (s *QueueService) ProcessQueue(ctx context.Context) (*ProcessResult, error) {
	logger := logutil.GetLogger(ctx)

	requeued, err := s.queue.RequeueFailed(ctx, s.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("requeue failed items: %w", err)
	}
	if requeued > 0 {
		logger.Info("requeued failed items", zap.Int64("count", requeued))
	}

	items, err := s.queue.ClaimPending(ctx, s.batchSize, s.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("claim queue items: %w", err)
	}

	result := &ProcessResult{
		ProcessedItems: []ProcessedItem{},
		FailedItems:    []FailedItem{},
	}
	for _, item := range items {
		if err := s.processItem(ctx, item); err != nil {
			logger.Warn("queue item failed",
				zap.String("queue_id", item.QueueID),
				zap.Int("retry_count", item.RetryCount),
				zap.Error(err),
			)
			if failErr := s.queue.Fail(ctx, item.QueueID, err.Error()); failErr != nil {
				logger.Error("failed to mark queue item failed",
					zap.String("queue_id", item.QueueID), zap.Error(failErr))
			}
			result.Failed++
			result.FailedItems = append(result.FailedItems, FailedItem{QueueID: item.QueueID, Error: err.Error()})
			continue
		}
		result.Processed++
		result.ProcessedItems = append(result.ProcessedItems, ProcessedItem{
			QueueID:     item.QueueID,
			ContentType: item.ContentType,
			ContentID:   item.ContentID,
		})
	}
	logger.Info("queue processing finished",
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *QueueService) processItem(ctx context.Context, item model.QueueItem) error {
	vector, err := s.embedder.Embed(ctx, item.Content, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return fmt.Errorf("generate embedding: %w", err)
	}
	if expected := s.embedder.Dimensions(); expected > 0 && len(vector) != expected {
		return fmt.Errorf("embedding has %d dimensions, corpus expects %d", len(vector), expected)
	}
	_, err = s.embeddings.UpsertByContentKey(ctx, &model.ContextEmbedding{
		UserID:      item.UserID,
		ContentType: item.ContentType,
		Content:     item.Content,
		Metadata: map[string]interface{}{
			model.MetaContentID: item.ContentID,
			"source":            "queue",
		},
		Embedding: vector,
	})
	if err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return s.queue.Complete(ctx, item.QueueID)
}

func (s *QueueService) Status(ctx context.Context) (*model.QueueStatus, error) {
	return s.queue.Status(ctx, s.maxRetries)
}
