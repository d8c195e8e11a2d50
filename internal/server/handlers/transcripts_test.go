package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbessonov/audioscribe/internal/models"
	"github.com/mbessonov/audioscribe/internal/server/storage"
	"github.com/mbessonov/audioscribe/internal/server/transcribe"
	"github.com/mbessonov/audioscribe/internal/server/upload"
	"github.com/mbessonov/audioscribe/pkg/api"
)

// mockPipeline is a mock implementation of TranscriptionPipeline
type mockPipeline struct {
	transcript *models.Transcript
	err        error

	gotUserID   string
	gotFilename string
	gotBody     []byte
}

func (m *mockPipeline) Process(ctx context.Context, userID string, up transcribe.Upload) (*models.Transcript, error) {
	m.gotUserID = userID
	m.gotFilename = up.Filename
	body, err := io.ReadAll(up.Body)
	if err != nil {
		return nil, err
	}
	m.gotBody = body

	if m.err != nil {
		return nil, m.err
	}
	return m.transcript, nil
}

// mockTranscriptStorage is a mock implementation of TranscriptStorage
type mockTranscriptStorage struct {
	transcripts map[string]*models.Transcript // id -> transcript
	total       int64
	listError   error
}

func newMockTranscriptStorage() *mockTranscriptStorage {
	return &mockTranscriptStorage{transcripts: make(map[string]*models.Transcript)}
}

func (m *mockTranscriptStorage) CreateTranscript(ctx context.Context, t *models.Transcript) error {
	m.transcripts[t.ID] = t
	return nil
}

func (m *mockTranscriptStorage) GetTranscript(ctx context.Context, id, userID string) (*models.Transcript, error) {
	t, ok := m.transcripts[id]
	if !ok || t.UserID != userID {
		return nil, storage.ErrTranscriptNotFound
	}
	return t, nil
}

func (m *mockTranscriptStorage) ListTranscripts(ctx context.Context, userID string, page, limit int64) ([]*models.Transcript, int64, error) {
	if m.listError != nil {
		return nil, 0, m.listError
	}
	list := []*models.Transcript{}
	for _, t := range m.transcripts {
		if t.UserID == userID {
			list = append(list, t)
		}
	}
	return list, m.total, nil
}

func (m *mockTranscriptStorage) DeleteTranscript(ctx context.Context, id, userID string) error {
	t, ok := m.transcripts[id]
	if !ok || t.UserID != userID {
		return storage.ErrTranscriptNotFound
	}
	delete(m.transcripts, id)
	return nil
}

func testTranscript(id, userID string) *models.Transcript {
	return &models.Transcript{
		ID:        id,
		UserID:    userID,
		Filename:  "clip.wav",
		Text:      "hello world",
		FileSize:  1024,
		CreatedAt: time.Now(),
	}
}

// multipartBody builds a multipart request body with one audio_file part
func multipartBody(t *testing.T, fieldName, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile(fieldName, filename)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func uploadRequest(t *testing.T, fieldName, filename string, payload []byte) *http.Request {
	t.Helper()

	body, contentType := multipartBody(t, fieldName, filename, payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcripts", body)
	req.Header.Set("Content-Type", contentType)
	return withUser(req, "user-1")
}

func TestUpload(t *testing.T) {
	pipeline := &mockPipeline{transcript: testTranscript("tr-1", "user-1")}
	h := NewTranscriptsHandler(testLogger(), pipeline, newMockTranscriptStorage())

	req := uploadRequest(t, "audio_file", "clip.wav", []byte("fake audio"))
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-1", pipeline.gotUserID)
	assert.Equal(t, "clip.wav", pipeline.gotFilename)
	assert.Equal(t, []byte("fake audio"), pipeline.gotBody)

	var resp api.TranscriptResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tr-1", resp.ID)
	assert.Equal(t, "hello world", resp.Text)
}

func TestUploadErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"too large", upload.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{"unsupported format", upload.ErrUnsupportedFormat, http.StatusUnprocessableEntity},
		{"truncated stream", upload.ErrStreamTruncated, http.StatusBadRequest},
		{"engine timeout", transcribe.ErrEngineTimeout, http.StatusInternalServerError},
		{"engine failure", fmt.Errorf("%w: model exploded", transcribe.ErrEngineFailure), http.StatusInternalServerError},
		{"persistence failure", fmt.Errorf("%w: disk full", transcribe.ErrPersistenceFailed), http.StatusInternalServerError},
		{"unexpected", errors.New("surprise"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &mockPipeline{err: tt.err}
			h := NewTranscriptsHandler(testLogger(), pipeline, newMockTranscriptStorage())

			req := uploadRequest(t, "audio_file", "clip.wav", []byte("fake audio"))
			rec := httptest.NewRecorder()

			h.Upload(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

// Engine failure details never reach the caller.
func TestUploadEngineErrorOpaque(t *testing.T) {
	pipeline := &mockPipeline{err: fmt.Errorf("%w: secret internal detail", transcribe.ErrEngineFailure)}
	h := NewTranscriptsHandler(testLogger(), pipeline, newMockTranscriptStorage())

	req := uploadRequest(t, "audio_file", "clip.wav", []byte("fake audio"))
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret internal detail")
}

func TestUploadNotMultipart(t *testing.T) {
	h := NewTranscriptsHandler(testLogger(), &mockPipeline{}, newMockTranscriptStorage())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcripts", bytes.NewReader([]byte("raw bytes")))
	req = withUser(req, "user-1")
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadWrongFieldName(t *testing.T) {
	h := NewTranscriptsHandler(testLogger(), &mockPipeline{}, newMockTranscriptStorage())

	req := uploadRequest(t, "file", "clip.wav", []byte("fake audio"))
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestList(t *testing.T) {
	transcripts := newMockTranscriptStorage()
	transcripts.transcripts["tr-1"] = testTranscript("tr-1", "user-1")
	transcripts.total = 25

	h := NewTranscriptsHandler(testLogger(), &mockPipeline{}, transcripts)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transcripts?page=2&limit=10", nil)
	req = withUser(req, "user-1")
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp api.TranscriptListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(2), resp.Page)
	assert.Equal(t, int64(10), resp.Limit)
	assert.Equal(t, int64(25), resp.Total)
	assert.Equal(t, int64(3), resp.TotalPages)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "tr-1", resp.Data[0].ID)
}

func TestListPaginationDefaults(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int64
		wantLimit int64
	}{
		{"no params", "", 1, 10},
		{"zero page", "?page=0", 1, 10},
		{"negative page", "?page=-3", 1, 10},
		{"zero limit", "?limit=0", 1, 10},
		{"limit above cap", "?limit=500", 1, 100},
		{"garbage values", "?page=abc&limit=xyz", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTranscriptsHandler(testLogger(), &mockPipeline{}, newMockTranscriptStorage())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/transcripts"+tt.query, nil)
			req = withUser(req, "user-1")
			rec := httptest.NewRecorder()

			h.List(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)

			var resp api.TranscriptListResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantPage, resp.Page)
			assert.Equal(t, tt.wantLimit, resp.Limit)
		})
	}
}

func TestListEmpty(t *testing.T) {
	h := NewTranscriptsHandler(testLogger(), &mockPipeline{}, newMockTranscriptStorage())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transcripts", nil)
	req = withUser(req, "user-1")
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp api.TranscriptListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Data)
	assert.Zero(t, resp.Total)
	assert.Zero(t, resp.TotalPages)
}

func TestGet(t *testing.T) {
	transcripts := newMockTranscriptStorage()
	transcripts.transcripts["tr-1"] = testTranscript("tr-1", "user-1")

	h := NewTranscriptsHandler(testLogger(), &mockPipeline{}, transcripts)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transcripts/tr-1", nil)
	req.SetPathValue("id", "tr-1")
	req = withUser(req, "user-1")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp api.TranscriptResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tr-1", resp.ID)
	assert.Equal(t, "clip.wav", resp.Filename)
}

// Another user's transcript is indistinguishable from a missing one.
func TestGetForeignTranscript(t *testing.T) {
	transcripts := newMockTranscriptStorage()
	transcripts.transcripts["tr-1"] = testTranscript("tr-1", "user-1")

	h := NewTranscriptsHandler(testLogger(), &mockPipeline{}, transcripts)

	for _, id := range []string{"tr-1", "tr-missing"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/transcripts/"+id, nil)
		req.SetPathValue("id", id)
		req = withUser(req, "user-2")
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}

func TestDelete(t *testing.T) {
	transcripts := newMockTranscriptStorage()
	transcripts.transcripts["tr-1"] = testTranscript("tr-1", "user-1")

	h := NewTranscriptsHandler(testLogger(), &mockPipeline{}, transcripts)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/transcripts/tr-1", nil)
	req.SetPathValue("id", "tr-1")
	req = withUser(req, "user-1")
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, transcripts.transcripts)
}

func TestDeleteNotFound(t *testing.T) {
	transcripts := newMockTranscriptStorage()
	transcripts.transcripts["tr-1"] = testTranscript("tr-1", "user-1")

	h := NewTranscriptsHandler(testLogger(), &mockPipeline{}, transcripts)

	// user-2 cannot delete user-1's transcript
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/transcripts/tr-1", nil)
	req.SetPathValue("id", "tr-1")
	req = withUser(req, "user-2")
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, transcripts.transcripts, 1)
}
