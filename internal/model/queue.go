package model

import "time"

const (
	QueueStatusPending    = "pending"
	QueueStatusProcessing = "processing"
	QueueStatusCompleted  = "completed"
	QueueStatusFailed     = "failed"
)

type QueueItem struct {
	QueueID     string    `json:"queue_id"`
	UserID      string    `json:"user_id"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	ContentID   string    `json:"content_id"`
	Status      string    `json:"status"`
	RetryCount  int       `json:"retry_count"`
	ErrorMsg    string    `json:"error_message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type QueueStatus struct {
	Pending         int `json:"pending"`
	Processing      int `json:"processing"`
	FailedRetryable int `json:"failed_retryable"`
}
