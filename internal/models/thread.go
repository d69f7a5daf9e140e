package models

import "time"

// TimestampLayout is RFC 3339 with fixed-width nanoseconds so that the TEXT
// created_at column sorts lexicographically in chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NowTimestamp returns the current UTC time in the canonical column format
func NowTimestamp() string {
	return time.Now().UTC().Format(TimestampLayout)
}

// Thread represents a persisted conversation
type Thread struct {
	ID           int64   `json:"id" gorm:"primaryKey"`
	Title        string  `json:"title" gorm:"not null"`
	CreatedAt    string  `json:"created_at" gorm:"not null"`
	SystemPrompt *string `json:"system_prompt"`
	IsArchived   bool    `json:"is_archived" gorm:"default:false"`
}
