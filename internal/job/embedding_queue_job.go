package job

import (
	"context"

	"github.com/renatodap/coach-context/internal/service"
)

// EmbeddingQueueJob drains the embedding generation queue on a schedule.
// The webhook endpoint triggers the same service path on demand.
type EmbeddingQueueJob struct {
	queue *service.QueueService
}

func NewEmbeddingQueueJob(queue *service.QueueService) *EmbeddingQueueJob {
	return &EmbeddingQueueJob{queue: queue}
}

func (j *EmbeddingQueueJob) Name() string {
	return "embedding_queue"
}

func (j *EmbeddingQueueJob) Run(ctx context.Context) error {
	if j.queue == nil {
		return nil
	}
	_, err := j.queue.ProcessQueue(ctx)
	return err
}
