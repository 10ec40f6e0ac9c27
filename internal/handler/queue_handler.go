package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/renatodap/coach-context/internal/pkg/response"
	"github.com/renatodap/coach-context/internal/service"
)

type QueueHandler struct {
	queue *service.QueueService
}

func NewQueueHandler(queue *service.QueueService) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// Process drains one batch. Auth (shared webhook secret) happens in
// middleware before this runs.
func (h *QueueHandler) Process(c *gin.Context) {
	result, err := h.queue.ProcessQueue(c.Request.Context())
	if err != nil {
		handleError(c, err, "Failed to process embedding queue")
		return
	}
	if result.Processed == 0 && result.Failed == 0 {
		response.Success(c, gin.H{
			"message":   "No items to process",
			"processed": 0,
		})
		return
	}
	response.Success(c, gin.H{
		"message":        "Processing complete",
		"processed":      result.Processed,
		"failed":         result.Failed,
		"processedItems": result.ProcessedItems,
		"failedItems":    result.FailedItems,
	})
}

// Status is the operator health check behind the admin key.
func (h *QueueHandler) Status(c *gin.Context) {
	status, err := h.queue.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	response.Success(c, gin.H{
		"status": "healthy",
		"queue":  status,
	})
}
