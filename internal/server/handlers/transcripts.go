package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/mbessonov/audioscribe/internal/models"
	"github.com/mbessonov/audioscribe/internal/server/middleware"
	"github.com/mbessonov/audioscribe/internal/server/storage"
	"github.com/mbessonov/audioscribe/internal/server/transcribe"
	"github.com/mbessonov/audioscribe/internal/server/upload"
	"github.com/mbessonov/audioscribe/pkg/api"
)

// audioFieldName is the multipart field carrying the audio payload
const audioFieldName = "audio_file"

// Pagination bounds for transcript listing
const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// TranscriptionPipeline runs one upload end to end
type TranscriptionPipeline interface {
	Process(ctx context.Context, userID string, up transcribe.Upload) (*models.Transcript, error)
}

// TranscriptsHandler handles transcript upload and retrieval requests
type TranscriptsHandler struct {
	logger      *slog.Logger
	pipeline    TranscriptionPipeline
	transcripts storage.TranscriptStorage
}

// NewTranscriptsHandler creates a new transcripts handler
func NewTranscriptsHandler(logger *slog.Logger, pipeline TranscriptionPipeline, transcripts storage.TranscriptStorage) *TranscriptsHandler {
	return &TranscriptsHandler{
		logger:      logger,
		pipeline:    pipeline,
		transcripts: transcripts,
	}
}

// Upload handles POST /api/v1/transcripts (bearer auth, multipart body).
// The body is streamed part by part; the pipeline sees the audio part
// as a plain reader and enforces all size and format limits itself.
func (h *TranscriptsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	mr, err := r.MultipartReader()
	if err != nil {
		sendError(h.logger, w, "multipart body required", http.StatusBadRequest)
		return
	}

	part, err := findAudioPart(mr)
	if err != nil {
		sendError(h.logger, w, "no audio file provided", http.StatusBadRequest)
		return
	}
	defer part.Close()

	if part.FileName() == "" {
		sendError(h.logger, w, "filename is required", http.StatusBadRequest)
		return
	}

	transcript, err := h.pipeline.Process(ctx, userID, transcribe.Upload{
		Filename:     part.FileName(),
		DeclaredSize: r.ContentLength,
		Body:         part,
	})
	if err != nil {
		h.sendPipelineError(ctx, w, err)
		return
	}

	sendJSON(h.logger, w, transcriptResponse(transcript), http.StatusCreated)
}

// List handles GET /api/v1/transcripts?page=&limit= (bearer auth)
func (h *TranscriptsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page := queryInt64(r, "page", defaultPage)
	limit := queryInt64(r, "limit", defaultLimit)
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	transcripts, total, err := h.transcripts.ListTranscripts(ctx, userID, page, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list transcripts",
			slog.String("user_id", userID),
			slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.TranscriptListResponse{
		Data:       make([]api.TranscriptResponse, 0, len(transcripts)),
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
	for _, t := range transcripts {
		resp.Data = append(resp.Data, transcriptResponse(t))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Get handles GET /api/v1/transcripts/{id} (bearer auth)
func (h *TranscriptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")

	transcript, err := h.transcripts.GetTranscript(ctx, id, userID)
	if err != nil {
		// Foreign ids take the same path as missing ones, so existence
		// is never confirmed to non-owners
		if errors.Is(err, storage.ErrTranscriptNotFound) {
			sendError(h.logger, w, "transcript not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get transcript",
			slog.String("user_id", userID),
			slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, transcriptResponse(transcript), http.StatusOK)
}

// Delete handles DELETE /api/v1/transcripts/{id} (bearer auth)
func (h *TranscriptsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")

	if err := h.transcripts.DeleteTranscript(ctx, id, userID); err != nil {
		if errors.Is(err, storage.ErrTranscriptNotFound) {
			sendError(h.logger, w, "transcript not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete transcript",
			slog.String("user_id", userID),
			slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "transcript deleted",
		slog.String("user_id", userID),
		slog.String("transcript_id", id))

	w.WriteHeader(http.StatusNoContent)
}

// sendPipelineError maps pipeline failures onto HTTP statuses. Upload
// rejections keep their kind; engine and persistence failures surface
// as a generic 500 with a stable message.
func (h *TranscriptsHandler) sendPipelineError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		sendError(h.logger, w, "file exceeds the maximum upload size", http.StatusRequestEntityTooLarge)
	case errors.Is(err, upload.ErrUnsupportedFormat):
		sendError(h.logger, w, "unsupported audio format", http.StatusUnprocessableEntity)
	case errors.Is(err, upload.ErrStreamTruncated):
		sendError(h.logger, w, "upload stream truncated", http.StatusBadRequest)
	case errors.Is(err, transcribe.ErrEngineTimeout),
		errors.Is(err, transcribe.ErrEngineFailure):
		sendError(h.logger, w, "transcription failed", http.StatusInternalServerError)
	case errors.Is(err, transcribe.ErrPersistenceFailed):
		sendError(h.logger, w, "failed to save transcript", http.StatusInternalServerError)
	default:
		h.logger.ErrorContext(ctx, "unexpected pipeline error", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}

// findAudioPart advances the multipart reader to the audio field
func findAudioPart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("no audio part in request")
			}
			return nil, err
		}
		if part.FormName() == audioFieldName {
			return part, nil
		}
		part.Close()
	}
}

// queryInt64 parses an integer query parameter with a default
func queryInt64(r *http.Request, key string, def int64) int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

// transcriptResponse builds the public transcript representation
func transcriptResponse(t *models.Transcript) api.TranscriptResponse {
	return api.TranscriptResponse{
		ID:              t.ID,
		Filename:        t.Filename,
		Text:            t.Text,
		FileSize:        t.FileSize,
		DurationSeconds: t.DurationSeconds,
		CreatedAt:       t.CreatedAt,
	}
}
