package api

import "time"

// TranscriptResponse represents a single persisted transcript
type TranscriptResponse struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	Text            string    `json:"text"`
	FileSize        int64     `json:"file_size"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TranscriptListResponse represents one page of transcripts, newest first
type TranscriptListResponse struct {
	Data       []TranscriptResponse `json:"data"`
	Page       int64                `json:"page"`
	Limit      int64                `json:"limit"`
	Total      int64                `json:"total"`
	TotalPages int64                `json:"total_pages"`
}
