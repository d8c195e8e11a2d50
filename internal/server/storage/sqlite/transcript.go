package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mbessonov/audioscribe/internal/models"
	"github.com/mbessonov/audioscribe/internal/server/storage"
)

// CreateTranscript persists a new transcript record
func (s *Storage) CreateTranscript(ctx context.Context, t *models.Transcript) error {
	query := `
		INSERT INTO transcripts (id, user_id, filename, text, file_size, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var duration sql.NullFloat64
	if t.DurationSeconds != nil {
		duration = sql.NullFloat64{Float64: *t.DurationSeconds, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		t.ID,
		t.UserID,
		t.Filename,
		t.Text,
		t.FileSize,
		duration,
		t.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert transcript: %w", err)
	}

	return nil
}

// GetTranscript retrieves one transcript owned by userID.
// The owner id is part of the predicate, so foreign ids look missing.
func (s *Storage) GetTranscript(ctx context.Context, id, userID string) (*models.Transcript, error) {
	query := `
		SELECT id, user_id, filename, text, file_size, duration_seconds, created_at
		FROM transcripts
		WHERE id = ? AND user_id = ?
	`

	t := &models.Transcript{}
	var duration sql.NullFloat64

	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&t.ID,
		&t.UserID,
		&t.Filename,
		&t.Text,
		&t.FileSize,
		&duration,
		&t.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}

	if duration.Valid {
		t.DurationSeconds = &duration.Float64
	}

	return t, nil
}

// ListTranscripts returns one page of the user's transcripts, newest
// first, plus the total count
func (s *Storage) ListTranscripts(ctx context.Context, userID string, page, limit int64) ([]*models.Transcript, int64, error) {
	offset := (page - 1) * limit

	query := `
		SELECT id, user_id, filename, text, file_size, duration_seconds, created_at
		FROM transcripts
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	transcripts := []*models.Transcript{}
	for rows.Next() {
		t := &models.Transcript{}
		var duration sql.NullFloat64

		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Filename,
			&t.Text,
			&t.FileSize,
			&duration,
			&t.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan transcript: %w", err)
		}

		if duration.Valid {
			t.DurationSeconds = &duration.Float64
		}

		transcripts = append(transcripts, t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate transcripts: %w", err)
	}

	var total int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transcripts WHERE user_id = ?`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transcripts: %w", err)
	}

	return transcripts, total, nil
}

// DeleteTranscript hard-removes one transcript owned by userID
func (s *Storage) DeleteTranscript(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM transcripts WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrTranscriptNotFound
	}

	return nil
}
