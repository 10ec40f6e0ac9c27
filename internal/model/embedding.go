package model

import "time"

// Well-known content types. The column itself is free-form; these are the
// values the mirror-write hooks react to.
const (
	ContentTypeWorkout = "workout"
	ContentTypeGoal    = "goal"
	ContentTypeMeal    = "meal"
	ContentTypeProfile = "profile"
)

// Metadata keys with special meaning for dedup and mirror writes.
const (
	MetaContentID           = "contentId"
	MetaWorkoutCompletionID = "workoutCompletionId"
)

type ContextEmbedding struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	ContentType string                 `json:"content_type"`
	Content     string                 `json:"content"`
	Metadata    map[string]interface{} `json:"metadata"`
	Embedding   []float32              `json:"embedding"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ContentKey returns the dedup key carried in metadata, empty when absent.
func (e *ContextEmbedding) ContentKey() string {
	if e.Metadata == nil {
		return ""
	}
	value, _ := e.Metadata[MetaContentID].(string)
	return value
}

type SearchResult struct {
	ID          string                 `json:"id"`
	ContentType string                 `json:"content_type"`
	Content     string                 `json:"content"`
	Metadata    map[string]interface{} `json:"metadata"`
	Similarity  float64                `json:"similarity"`
}
