package models

import "time"

// Transcript is the persisted result of one successful transcription.
// Immutable after creation except for deletion.
type Transcript struct {
	ID              string    `json:"id"`      // UUID
	UserID          string    `json:"user_id"` // owning user
	Filename        string    `json:"filename"`
	Text            string    `json:"text"`
	FileSize        int64     `json:"file_size"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
