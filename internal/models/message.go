package models

// Role values for messages
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents one turn in a thread. The metrics bundle
// (TotalDuration through TokensPerSecond) is assistant-only and backfilled
// all-or-nothing once a generation completes.
type Message struct {
	ID              int64    `json:"id" gorm:"primaryKey"`
	ThreadID        int64    `json:"thread_id" gorm:"index;not null"`
	Role            string   `json:"role" gorm:"not null"`
	Content         string   `json:"content" gorm:"not null"`
	Images          []string `json:"images,omitempty" gorm:"serializer:json;type:text"`
	Model           *string  `json:"model,omitempty"`
	CreatedAt       string   `json:"created_at" gorm:"not null;index"`
	ThinkingProcess *string  `json:"thinking_process,omitempty"`
	TotalDuration   *int64   `json:"total_duration,omitempty"`
	LoadDuration    *int64   `json:"load_duration,omitempty"`
	PromptEvalCount *int64   `json:"prompt_eval_count,omitempty"`
	EvalCount       *int64   `json:"eval_count,omitempty"`
	EvalDuration    *int64   `json:"eval_duration,omitempty"`
	TokensPerSecond *float64 `json:"tokens_per_second,omitempty"`
	ReplyToID       *int64   `json:"reply_to_id,omitempty"`

	// Self-reference is a weak back-reference: deleting the referenced
	// message clears ReplyToID instead of cascading.
	ReplyTo *Message `json:"-" gorm:"foreignKey:ReplyToID;constraint:OnDelete:SET NULL"`
	Thread  *Thread  `json:"-" gorm:"foreignKey:ThreadID"`
}

// MessageMetrics is the all-or-nothing performance bundle reported by the
// backend's terminal stream record.
type MessageMetrics struct {
	TotalDuration   int64   `json:"total_duration"`
	LoadDuration    int64   `json:"load_duration"`
	PromptEvalCount int64   `json:"prompt_eval_count"`
	EvalCount       int64   `json:"eval_count"`
	EvalDuration    int64   `json:"eval_duration"`
	TokensPerSecond float64 `json:"tokens_per_second"`
}
