package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// HTTPEngine calls a speech-recognition service over HTTP.
// The audio file is posted as a multipart body; the service replies
// with JSON {"text": ..., "duration_seconds": ...}.
type HTTPEngine struct {
	url    string
	apiKey string
	client *http.Client
}

type httpEngineResponse struct {
	Text            string   `json:"text"`
	DurationSeconds *float64 `json:"duration_seconds"`
}

// NewHTTPEngine creates an engine client. apiKey may be empty.
// client may be nil, in which case http.DefaultClient is used; request
// deadlines come from the caller's context either way.
func NewHTTPEngine(url, apiKey string, client *http.Client) *HTTPEngine {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPEngine{url: url, apiKey: apiKey, client: client}
}

// Transcribe posts the staged file and decodes the transcription
func (e *HTTPEngine) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open staged file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return Result{}, fmt.Errorf("failed to read staged file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, &body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build engine request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Cap the error body so a misbehaving engine cannot flood logs
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("engine returned status %d: %s", resp.StatusCode, detail)
	}

	var decoded httpEngineResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("failed to decode engine response: %w", err)
	}

	return Result{Text: decoded.Text, DurationSeconds: decoded.DurationSeconds}, nil
}
