package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mbessonov/audioscribe/internal/models"
	"github.com/mbessonov/audioscribe/internal/server/storage"
	"github.com/mbessonov/audioscribe/internal/server/upload"
)

// Pipeline failure kinds, distinct from the stager's rejections
var (
	// ErrEngineTimeout indicates the engine did not answer within the
	// configured deadline
	ErrEngineTimeout = errors.New("engine timed out")

	// ErrEngineFailure indicates the engine failed or produced an
	// unusable result
	ErrEngineFailure = errors.New("engine failure")

	// ErrPersistenceFailed indicates the transcription succeeded but
	// the repository write did not
	ErrPersistenceFailed = errors.New("failed to persist transcript")
)

// MaxTextLen caps the stored transcription text at 1 MiB
const MaxTextLen = 1 << 20

// Upload describes one incoming audio payload
type Upload struct {
	Filename     string
	DeclaredSize int64
	Body         io.Reader
}

// Pipeline runs one upload through stage -> engine -> persist.
// The staged file is removed on every exit path past staging; at most
// one repository write happens, and only on full success.
type Pipeline struct {
	logger        *slog.Logger
	stager        *upload.Stager
	engine        Engine
	transcripts   storage.TranscriptStorage
	engineTimeout time.Duration
}

// NewPipeline creates a transcription pipeline
func NewPipeline(
	logger *slog.Logger,
	stager *upload.Stager,
	engine Engine,
	transcripts storage.TranscriptStorage,
	engineTimeout time.Duration,
) *Pipeline {
	return &Pipeline{
		logger:        logger,
		stager:        stager,
		engine:        engine,
		transcripts:   transcripts,
		engineTimeout: engineTimeout,
	}
}

// Process stages the upload, invokes the engine once, and persists the
// transcript for userID. Stager rejections pass through untranslated;
// engine and repository failures come back as ErrEngineTimeout,
// ErrEngineFailure, or ErrPersistenceFailed.
func (p *Pipeline) Process(ctx context.Context, userID string, up Upload) (*models.Transcript, error) {
	handle, err := p.stager.Stage(up.Filename, up.DeclaredSize, up.Body)
	if err != nil {
		return nil, err
	}

	// Cleanup is registered the moment staging succeeds, so the scratch
	// file cannot outlive the request on any path below
	defer func() {
		if err := handle.Remove(); err != nil {
			p.logger.ErrorContext(ctx, "failed to remove staged file",
				slog.String("path", handle.Path),
				slog.Any("error", err))
		}
	}()

	engineCtx := ctx
	if p.engineTimeout > 0 {
		var cancel context.CancelFunc
		engineCtx, cancel = context.WithTimeout(ctx, p.engineTimeout)
		defer cancel()
	}

	started := time.Now()
	result, err := p.engine.Transcribe(engineCtx, handle.Path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.logger.WarnContext(ctx, "engine timed out",
				slog.String("user_id", userID),
				slog.Duration("after", time.Since(started)))
			return nil, ErrEngineTimeout
		}
		p.logger.ErrorContext(ctx, "engine invocation failed",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %s", ErrEngineFailure, err)
	}

	if len(result.Text) > MaxTextLen {
		p.logger.ErrorContext(ctx, "engine produced oversized transcription",
			slog.String("user_id", userID),
			slog.Int("length", len(result.Text)))
		return nil, fmt.Errorf("%w: transcription exceeds %d bytes", ErrEngineFailure, MaxTextLen)
	}

	transcript := &models.Transcript{
		ID:              uuid.New().String(),
		UserID:          userID,
		Filename:        up.Filename,
		Text:            result.Text,
		FileSize:        handle.Size,
		DurationSeconds: result.DurationSeconds,
		CreatedAt:       time.Now(),
	}

	if err := p.transcripts.CreateTranscript(ctx, transcript); err != nil {
		p.logger.ErrorContext(ctx, "failed to persist transcript",
			slog.String("user_id", userID),
			slog.String("transcript_id", transcript.ID),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %s", ErrPersistenceFailed, err)
	}

	p.logger.InfoContext(ctx, "transcript created",
		slog.String("user_id", userID),
		slog.String("transcript_id", transcript.ID),
		slog.Int64("file_size", handle.Size),
		slog.Duration("engine_time", time.Since(started)))

	return transcript, nil
}
