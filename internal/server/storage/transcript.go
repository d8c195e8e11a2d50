package storage

import (
	"context"

	"github.com/mbessonov/audioscribe/internal/models"
)

// TranscriptStorage defines interface for transcript persistence.
// Every read and delete is scoped by the owning user id; a transcript
// belonging to another user behaves exactly like a missing one.
type TranscriptStorage interface {
	// CreateTranscript persists a new transcript record
	CreateTranscript(ctx context.Context, t *models.Transcript) error

	// GetTranscript retrieves one transcript owned by userID.
	// Returns ErrTranscriptNotFound for missing or foreign ids.
	GetTranscript(ctx context.Context, id, userID string) (*models.Transcript, error)

	// ListTranscripts returns one page of the user's transcripts,
	// newest first, plus the total count for that user
	ListTranscripts(ctx context.Context, userID string, page, limit int64) ([]*models.Transcript, int64, error)

	// DeleteTranscript hard-removes one transcript owned by userID.
	// Returns ErrTranscriptNotFound for missing or foreign ids.
	DeleteTranscript(ctx context.Context, id, userID string) error
}
